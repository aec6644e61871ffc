package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of a transaction record.
type Kind string

const (
	KindIncome   Kind = "income"
	KindExpense  Kind = "expense"
	KindTransfer Kind = "transfer"
)

// Transaction is a persisted income, expense or transfer record.
//
// Income and expense records carry a signed Amount: positive for income,
// negative for expense, in the currency of AccountID. Transfer records carry
// the unsigned magnitude debited from FromAccountID in Amount and the
// magnitude credited to ToAccountID in ToAmount; the two differ only when
// the accounts use different currencies.
type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Kind          Kind            `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	ToAmount      decimal.Decimal `json:"to_amount,omitzero"`
	Currency      string          `json:"currency"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	AccountID     string          `json:"account_id,omitempty"`
	FromAccountID string          `json:"from_account_id,omitempty"`
	ToAccountID   string          `json:"to_account_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IsTransfer reports whether the record moves value between two accounts.
func (t Transaction) IsTransfer() bool {
	return t.Kind == KindTransfer
}

// Touches reports whether the record affects the given account.
func (t Transaction) Touches(accountID string) bool {
	if t.IsTransfer() {
		return t.FromAccountID == accountID || t.ToAccountID == accountID
	}
	return t.AccountID == accountID
}

// ImportRow is one parsed line of a bank statement export.
type ImportRow struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = expense, positive = income
	Currency    string          // empty = account currency
	Reference   string
}
