package balance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/model"
)

// Operation is one of Income, Expense, Transfer or Delete.
type Operation interface {
	// AccountIDs lists the accounts the operation touches.
	AccountIDs() []string
	isOperation()
}

// Income credits Amount (a positive magnitude) to an account.
type Income struct {
	AccountID   string
	Amount      decimal.Decimal
	Currency    string // empty = account currency
	Date        time.Time
	Description string
}

// Expense debits Amount (a positive magnitude) from an account.
type Expense struct {
	AccountID   string
	Amount      decimal.Decimal
	Currency    string // empty = account currency
	Date        time.Time
	Description string
}

// Transfer moves Amount out of FromAccountID and ToAmount into ToAccountID.
// ToAmount defaults to Amount. It may differ from Amount only when the two
// accounts hold different currencies.
type Transfer struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	ToAmount      decimal.Decimal
	Currency      string // empty = source account currency
	Date          time.Time
	Description   string
}

// Delete reverses a previously applied record.
type Delete struct {
	Transaction model.Transaction
}

func (o Income) AccountIDs() []string  { return []string{o.AccountID} }
func (o Expense) AccountIDs() []string { return []string{o.AccountID} }
func (o Transfer) AccountIDs() []string {
	return []string{o.FromAccountID, o.ToAccountID}
}

func (o Delete) AccountIDs() []string {
	if o.Transaction.IsTransfer() {
		return []string{o.Transaction.FromAccountID, o.Transaction.ToAccountID}
	}
	return []string{o.Transaction.AccountID}
}

func (Income) isOperation()   {}
func (Expense) isOperation()  {}
func (Transfer) isOperation() {}
func (Delete) isOperation()   {}
