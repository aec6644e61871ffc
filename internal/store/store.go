// Package store persists accounts, transactions, rates, holdings and goals.
//
// All access goes through WithTx so that a balance update and the record that
// caused it are committed together or not at all.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/config"
	"github.com/apt777/finance-app/internal/model"
)

// Store opens storage transactions.
type Store interface {
	// WithTx runs fn in a transaction. fn's writes are committed when it
	// returns nil and discarded otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close()
}

// Tx is the set of reads and writes available inside a transaction. Lookups
// of records owned by another user return model.ErrNotFound.
type Tx interface {
	CreateAccount(ctx context.Context, a model.Account) error
	// GetAccount returns the account and, on stores that support it, locks
	// it until the transaction ends.
	GetAccount(ctx context.Context, userID, id string) (model.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]model.Account, error)
	UpdateAccount(ctx context.Context, a model.Account) error
	SetBalance(ctx context.Context, userID, id string, balance decimal.Decimal) error
	DeleteAccount(ctx context.Context, userID, id string) error

	InsertTransaction(ctx context.Context, t model.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (model.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]model.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error

	// UpsertRate creates the rate for (user, from, to) or replaces it.
	UpsertRate(ctx context.Context, r model.ExchangeRate) error
	ListRates(ctx context.Context, userID string) ([]model.ExchangeRate, error)
	DeleteRate(ctx context.Context, userID, from, to string) error

	SaveHolding(ctx context.Context, h model.Holding) error
	GetHolding(ctx context.Context, userID, id string) (model.Holding, error)
	ListHoldings(ctx context.Context, userID string) ([]model.Holding, error)
	DeleteHolding(ctx context.Context, userID, id string) error

	SaveGoal(ctx context.Context, g model.Goal) error
	GetGoal(ctx context.Context, userID, id string) (model.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]model.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
}

// TransactionFilter narrows ListTransactions. Zero fields match everything.
// Results are ordered by date, newest first.
type TransactionFilter struct {
	AccountID string
	Kind      model.Kind
	From      time.Time // inclusive
	To        time.Time // exclusive
	Limit     int
}

// Match reports whether t passes the filter, ignoring Limit.
func (f TransactionFilter) Match(t model.Transaction) bool {
	if f.AccountID != "" && !t.Touches(f.AccountID) {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Date.Before(f.To) {
		return false
	}
	return true
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "postgres":
		return NewPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, model.ErrNotFound)
}
