package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a position in a security held in an investment account.
type Holding struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	AccountID    string          `json:"account_id"`
	Symbol       string          `json:"symbol"`
	Shares       decimal.Decimal `json:"shares"`
	CostBasis    decimal.Decimal `json:"cost_basis"`             // per share
	CurrentPrice decimal.Decimal `json:"current_price,omitzero"` // zero = not tracked
	Currency     string          `json:"currency"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Goal is a savings target.
type Goal struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
