// Package currency converts amounts between currencies using a user's
// manually maintained rate table.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/model"
)

// Convert converts amount from one currency to another.
//
// A direct rate is used when present, otherwise the inverse of the reverse
// rate. When neither exists the amount is returned unchanged together with an
// error wrapping model.ErrRateUnavailable; callers treat that as a warning.
func Convert(amount decimal.Decimal, from, to string, rates []model.ExchangeRate) (decimal.Decimal, error) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return amount, nil
	}

	for _, r := range rates {
		if normalize(r.FromCurrency) == from && normalize(r.ToCurrency) == to {
			return amount.Mul(r.Rate), nil
		}
	}

	for _, r := range rates {
		if normalize(r.FromCurrency) == to && normalize(r.ToCurrency) == from && !r.Rate.IsZero() {
			return amount.Div(r.Rate), nil
		}
	}

	return amount, fmt.Errorf("%s to %s: %w", from, to, model.ErrRateUnavailable)
}

// Rate returns the multiplier that Convert would apply from one currency to
// another, or an error wrapping model.ErrRateUnavailable.
func Rate(from, to string, rates []model.ExchangeRate) (decimal.Decimal, error) {
	return Convert(decimal.NewFromInt(1), from, to, rates)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
