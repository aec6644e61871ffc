// Package balance computes the balance changes caused by recording or
// deleting transactions. It performs no I/O: callers load the account
// snapshots, call Apply, and persist the returned UnitOfWork atomically.
package balance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/model"
)

// Change is the new balance of one account.
type Change struct {
	AccountID string
	Currency  string
	Before    decimal.Decimal
	After     decimal.Decimal
}

// UnitOfWork is the set of writes that must be committed together.
// Exactly one of Create and Remove is set.
type UnitOfWork struct {
	Changes []Change
	Create  *model.Transaction
	Remove  *model.Transaction
}

// Balance returns the post-operation balance of accountID.
func (u UnitOfWork) Balance(accountID string) (decimal.Decimal, bool) {
	for _, c := range u.Changes {
		if c.AccountID == accountID {
			return c.After, true
		}
	}
	return decimal.Zero, false
}

// Apply computes the unit of work for op against the given account snapshots.
// The returned record has no ID, owner or creation time; the caller assigns
// them before persisting.
func Apply(op Operation, accounts ...model.Account) (UnitOfWork, error) {
	switch o := op.(type) {
	case Income:
		return applySimple(model.KindIncome, o.AccountID, o.Amount, o.Currency, o.Date, o.Description, accounts)
	case Expense:
		return applySimple(model.KindExpense, o.AccountID, o.Amount, o.Currency, o.Date, o.Description, accounts)
	case Transfer:
		return applyTransfer(o, accounts)
	case Delete:
		return applyDelete(o.Transaction, accounts)
	default:
		return UnitOfWork{}, fmt.Errorf("operation %T: %w", op, model.ErrInvalidOperation)
	}
}

// effect converts an asset-view delta into the change of the account's
// stored balance. Liability balances count debt, so the sign flips.
func effect(a model.Account, assetDelta decimal.Decimal) decimal.Decimal {
	if a.IsLiability() {
		return assetDelta.Neg()
	}
	return assetDelta
}

// SignedAmount returns the stored amount for a simple transaction: positive
// for income, negative for expense.
func SignedAmount(kind model.Kind, magnitude decimal.Decimal) decimal.Decimal {
	if kind == model.KindExpense {
		return magnitude.Abs().Neg()
	}
	return magnitude.Abs()
}

func applySimple(kind model.Kind, accountID string, amount decimal.Decimal, cur string, date time.Time, desc string, accounts []model.Account) (UnitOfWork, error) {
	if err := requirePositive(amount); err != nil {
		return UnitOfWork{}, err
	}
	acct, err := find(accounts, accountID)
	if err != nil {
		return UnitOfWork{}, err
	}
	cur, err = matchCurrency(cur, acct)
	if err != nil {
		return UnitOfWork{}, err
	}

	signed := SignedAmount(kind, amount)
	rec := &model.Transaction{
		Kind:        kind,
		Amount:      signed,
		Currency:    cur,
		Date:        date,
		Description: desc,
		AccountID:   acct.ID,
	}
	return UnitOfWork{
		Changes: []Change{change(acct, effect(acct, signed))},
		Create:  rec,
	}, nil
}

func applyTransfer(o Transfer, accounts []model.Account) (UnitOfWork, error) {
	if err := requirePositive(o.Amount); err != nil {
		return UnitOfWork{}, err
	}
	toAmount := o.ToAmount
	if toAmount.IsZero() {
		toAmount = o.Amount
	}
	if err := requirePositive(toAmount); err != nil {
		return UnitOfWork{}, err
	}
	if o.FromAccountID == o.ToAccountID {
		return UnitOfWork{}, fmt.Errorf("transfer from account %s to itself: %w", o.FromAccountID, model.ErrInvalidOperation)
	}
	from, err := find(accounts, o.FromAccountID)
	if err != nil {
		return UnitOfWork{}, err
	}
	to, err := find(accounts, o.ToAccountID)
	if err != nil {
		return UnitOfWork{}, err
	}
	if from.Currency == to.Currency && !toAmount.Equal(o.Amount) {
		return UnitOfWork{}, fmt.Errorf("transfer between %s accounts credits %s but debits %s: %w",
			from.Currency, toAmount, o.Amount, model.ErrInvalidOperation)
	}
	cur, err := matchCurrency(o.Currency, from)
	if err != nil {
		return UnitOfWork{}, err
	}

	rec := &model.Transaction{
		Kind:          model.KindTransfer,
		Amount:        o.Amount,
		ToAmount:      toAmount,
		Currency:      cur,
		Date:          o.Date,
		Description:   o.Description,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
	}
	return UnitOfWork{
		Changes: []Change{
			change(from, effect(from, o.Amount.Neg())),
			change(to, effect(to, toAmount)),
		},
		Create: rec,
	}, nil
}

func applyDelete(rec model.Transaction, accounts []model.Account) (UnitOfWork, error) {
	switch rec.Kind {
	case model.KindIncome, model.KindExpense:
		acct, err := find(accounts, rec.AccountID)
		if err != nil {
			return UnitOfWork{}, err
		}
		return UnitOfWork{
			Changes: []Change{change(acct, effect(acct, rec.Amount).Neg())},
			Remove:  &rec,
		}, nil

	case model.KindTransfer:
		from, err := find(accounts, rec.FromAccountID)
		if err != nil {
			return UnitOfWork{}, err
		}
		to, err := find(accounts, rec.ToAccountID)
		if err != nil {
			return UnitOfWork{}, err
		}
		toAmount := rec.ToAmount
		if toAmount.IsZero() {
			toAmount = rec.Amount
		}
		return UnitOfWork{
			Changes: []Change{
				change(from, effect(from, rec.Amount.Abs().Neg()).Neg()),
				change(to, effect(to, toAmount.Abs()).Neg()),
			},
			Remove: &rec,
		}, nil

	default:
		return UnitOfWork{}, fmt.Errorf("transaction %s has kind %q: %w", rec.ID, rec.Kind, model.ErrInvalidOperation)
	}
}

func change(a model.Account, delta decimal.Decimal) Change {
	return Change{
		AccountID: a.ID,
		Currency:  a.Currency,
		Before:    a.Balance,
		After:     a.Balance.Add(delta),
	}
}

func find(accounts []model.Account, id string) (model.Account, error) {
	for _, a := range accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("account %s: %w", id, model.ErrNotFound)
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount %s must be positive: %w", amount, model.ErrInvalidAmount)
	}
	return nil
}

func matchCurrency(cur string, acct model.Account) (string, error) {
	if cur == "" {
		return acct.Currency, nil
	}
	if !strings.EqualFold(cur, acct.Currency) {
		return "", fmt.Errorf("currency %s does not match account %s (%s): %w", cur, acct.ID, acct.Currency, model.ErrInvalidOperation)
	}
	return acct.Currency, nil
}
