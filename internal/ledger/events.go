package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/balance"
	"github.com/apt777/finance-app/internal/model"
)

// Event types pushed to live clients.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionDeleted = "transaction.deleted"
	EventImportCompleted    = "import.completed"
)

// Event is the payload published after a committed unit of work.
type Event struct {
	Type        string             `json:"type"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
	Imported    int                `json:"imported,omitempty"`
	Balances    []BalanceUpdate    `json:"balances"`
}

// BalanceUpdate is the new balance of one account.
type BalanceUpdate struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
}

func balanceUpdates(changes []balance.Change) []BalanceUpdate {
	out := make([]BalanceUpdate, len(changes))
	for i, c := range changes {
		out[i] = BalanceUpdate{AccountID: c.AccountID, Balance: c.After, Currency: c.Currency}
	}
	return out
}
