package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/apt777/finance-app/internal/currency"
	"github.com/apt777/finance-app/internal/model"
)

const (
	acctNumFields  = 7
	colAcctID      = 0
	colAcctName    = 1
	colAcctType    = 2
	colAcctClass   = 3
	colAcctCur     = 4
	colAcctBalance = 5
	colAcctDisplay = 6
)

// WriteAccounts writes accounts with a header row.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"account_id", "name", "type", "class", "currency", "balance", "display"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, acctNumFields)
	row[colAcctID] = acct.ID
	row[colAcctName] = acct.Name
	row[colAcctType] = string(acct.Type)
	row[colAcctClass] = string(acct.Class())
	row[colAcctCur] = acct.Currency
	row[colAcctBalance] = acct.Balance.StringFixed(currency.Fraction(acct.Currency))
	row[colAcctDisplay] = currency.Format(acct.Balance, acct.Currency)
	return row
}
