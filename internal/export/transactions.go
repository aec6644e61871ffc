// Package export writes accounts and transactions as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/apt777/finance-app/internal/currency"
	"github.com/apt777/finance-app/internal/model"
)

// TransactionHeader is the CSV header written by WriteTransactions.
const TransactionHeader = "id,date,kind,account_id,from_account_id,to_account_id,amount,to_amount,currency,description,created_at"

const (
	txNumFields  = 11
	dateFormat   = "2006-01-02"
	colTxID      = 0
	colTxDate    = 1
	colTxKind    = 2
	colTxAcct    = 3
	colTxFrom    = 4
	colTxTo      = 5
	colTxAmount  = 6
	colTxToAmt   = 7
	colTxCur     = 8
	colTxDesc    = 9
	colTxCreated = 10
)

// WriteTransactions writes transactions with a header row.
func WriteTransactions(w io.Writer, recs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(TransactionHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range recs {
		if err := cw.Write(MarshalTransaction(rec)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row. Amounts use the
// minor-unit precision of the currency; income and expense amounts keep
// their sign.
func MarshalTransaction(rec model.Transaction) []string {
	frac := currency.Fraction(rec.Currency)
	row := make([]string, txNumFields)
	row[colTxID] = rec.ID
	row[colTxDate] = rec.Date.Format(dateFormat)
	row[colTxKind] = string(rec.Kind)
	row[colTxAcct] = rec.AccountID
	row[colTxFrom] = rec.FromAccountID
	row[colTxTo] = rec.ToAccountID
	row[colTxAmount] = rec.Amount.StringFixed(frac)
	if rec.IsTransfer() && !rec.ToAmount.IsZero() {
		row[colTxToAmt] = rec.ToAmount.String()
	}
	row[colTxCur] = rec.Currency
	row[colTxDesc] = rec.Description
	if !rec.CreatedAt.IsZero() {
		row[colTxCreated] = rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return row
}
