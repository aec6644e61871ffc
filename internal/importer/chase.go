package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/model"
)

// ChaseParser parses Chase CSV exports. Both the checking layout
// (Details, Posting Date, Description, Amount, Type, Balance, Check or Slip #)
// and the card layout (Transaction Date, Post Date, Description, Category,
// Type, Amount, Memo) are recognised by their header row.
//
// Chase does not say which currency a file is in. Rows carry Currency when
// it is set and otherwise take the currency of the account they are
// imported into.
type ChaseParser struct {
	Currency string
}

const chaseDateFormat = "01/02/2006"

// chaseColumns maps the fields we read to their index in a file.
type chaseColumns struct {
	date, desc, amount, typ, check, memo int
}

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV. Amounts keep Chase's sign: money in is positive,
// purchases and debits are negative. The Type column, a check number and a
// card memo are kept in the row reference.
func (p *ChaseParser) Parse(r io.Reader) ([]model.ImportRow, error) {
	cr := csv.NewReader(r)
	// Checking exports end data rows with an extra empty field.
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols, err := chaseHeader(records[0])
	if err != nil {
		return nil, err
	}

	var rows []model.ImportRow
	for i, rec := range records[1:] {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row, err := p.parseRow(cols, rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func chaseHeader(header []string) (chaseColumns, error) {
	cols := chaseColumns{date: -1, desc: -1, amount: -1, typ: -1, check: -1, memo: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "posting date", "transaction date":
			if cols.date < 0 {
				cols.date = i
			}
		case "description":
			cols.desc = i
		case "amount":
			cols.amount = i
		case "type":
			cols.typ = i
		case "check or slip #":
			cols.check = i
		case "memo":
			cols.memo = i
		}
	}
	if cols.date < 0 || cols.desc < 0 || cols.amount < 0 {
		return cols, fmt.Errorf("not a chase export: header %q lacks a date, description or amount column", strings.Join(header, ","))
	}
	return cols, nil
}

func (p *ChaseParser) parseRow(cols chaseColumns, rec []string) (model.ImportRow, error) {
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := time.Parse(chaseDateFormat, field(cols.date))
	if err != nil {
		return model.ImportRow{}, fmt.Errorf("parsing date %q: %w", field(cols.date), err)
	}
	amount, err := decimal.NewFromString(field(cols.amount))
	if err != nil {
		return model.ImportRow{}, fmt.Errorf("parsing amount %q: %w", field(cols.amount), err)
	}

	return model.ImportRow{
		Date:        date,
		Description: field(cols.desc),
		Amount:      amount,
		Currency:    strings.ToUpper(p.Currency),
		Reference:   chaseReference(field(cols.typ), field(cols.check), field(cols.memo)),
	}, nil
}

// chaseReference joins the transaction type, check number and memo, e.g.
// "ach_debit", "check_paid #1042" or "sale; team lunch".
func chaseReference(typ, check, memo string) string {
	var parts []string
	if typ != "" {
		parts = append(parts, strings.ToLower(typ))
	}
	if check != "" {
		parts = append(parts, "#"+check)
	}
	ref := strings.Join(parts, " ")
	if memo != "" {
		if ref != "" {
			ref += "; "
		}
		ref += memo
	}
	return ref
}
