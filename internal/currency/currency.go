package currency

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/model"
)

// Normalize returns the canonical upper-case form of an ISO 4217 code, or an
// error if the code is unknown.
func Normalize(code string) (string, error) {
	c := normalize(code)
	if c == "" {
		return "", model.ValidationError{Field: "currency", Message: "required"}
	}
	if money.GetCurrency(c) == nil {
		return "", model.ValidationError{Field: "currency", Message: fmt.Sprintf("unknown currency %q", code)}
	}
	return c, nil
}

// Fraction returns the number of minor-unit digits of a currency (2 for USD,
// 0 for JPY). Unknown codes default to 2.
func Fraction(code string) int32 {
	c := money.GetCurrency(normalize(code))
	if c == nil {
		return 2
	}
	return int32(c.Fraction)
}

// Round rounds amount to the minor unit of the currency.
func Round(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(Fraction(code))
}

// Format renders amount with the currency's symbol and grouping, e.g.
// "¥1,000" or "$1,234.50". Unknown codes fall back to "<amount> <code>".
func Format(amount decimal.Decimal, code string) string {
	c := normalize(code)
	cur := money.GetCurrency(c)
	if cur == nil {
		return amount.String() + " " + c
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, c).Display()
}
