package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is a manually maintained conversion rate: one unit of
// FromCurrency is worth Rate units of ToCurrency.
type ExchangeRate struct {
	UserID       string          `json:"user_id"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Rate         decimal.Decimal `json:"rate"`
	Source       string          `json:"source"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
