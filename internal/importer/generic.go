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

// GenericParser parses the neutral "date,description,amount[,currency]"
// layout. Dates are ISO (2006-01-02). A first row is a header when neither
// its date nor its amount parses.
type GenericParser struct{}

const (
	genericDateFormat = "2006-01-02"
	genericColDate    = 0
	genericColDesc    = 1
	genericColAmount  = 2
	genericColCur     = 3
)

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Parse reads a generic CSV.
func (p *GenericParser) Parse(r io.Reader) ([]model.ImportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading generic CSV: %w", err)
	}
	first := 0
	if len(records) > 0 && isHeader(records[0]) {
		first = 1
	}

	var rows []model.ImportRow
	for i := first; i < len(records); i++ {
		rec := records[i]
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row, err := parseGenericRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isHeader(rec []string) bool {
	if len(rec) <= genericColAmount {
		return false
	}
	if _, err := time.Parse(genericDateFormat, strings.TrimSpace(rec[genericColDate])); err == nil {
		return false
	}
	_, err := parseAmount(rec[genericColAmount])
	return err != nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
}

func parseGenericRow(rec []string) (model.ImportRow, error) {
	if len(rec) < 3 || len(rec) > 4 {
		return model.ImportRow{}, fmt.Errorf("expected 3 or 4 fields, got %d", len(rec))
	}
	date, err := time.Parse(genericDateFormat, strings.TrimSpace(rec[genericColDate]))
	if err != nil {
		return model.ImportRow{}, fmt.Errorf("parsing date %q: %w", rec[genericColDate], err)
	}
	amount, err := parseAmount(rec[genericColAmount])
	if err != nil {
		return model.ImportRow{}, fmt.Errorf("parsing amount %q: %w", rec[genericColAmount], err)
	}

	row := model.ImportRow{
		Date:        date,
		Description: strings.TrimSpace(rec[genericColDesc]),
		Amount:      amount,
	}
	if len(rec) == 4 {
		row.Currency = strings.ToUpper(strings.TrimSpace(rec[genericColCur]))
	}
	return row, nil
}
