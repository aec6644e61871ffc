package store

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		balance NUMERIC NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('income', 'expense', 'transfer')),
		amount NUMERIC NOT NULL,
		to_amount NUMERIC NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL,
		date DATE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		account_id TEXT REFERENCES accounts(id) ON DELETE RESTRICT,
		from_account_id TEXT REFERENCES accounts(id) ON DELETE RESTRICT,
		to_account_id TEXT REFERENCES accounts(id) ON DELETE RESTRICT,
		created_at TIMESTAMPTZ NOT NULL,
		CHECK ((kind = 'transfer') = (account_id IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date DESC)`,
	`CREATE TABLE IF NOT EXISTS exchange_rates (
		user_id TEXT NOT NULL,
		from_currency CHAR(3) NOT NULL,
		to_currency CHAR(3) NOT NULL,
		rate NUMERIC NOT NULL CHECK (rate > 0),
		source TEXT NOT NULL DEFAULT 'manual',
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, from_currency, to_currency)
	)`,
	`CREATE TABLE IF NOT EXISTS holdings (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		shares NUMERIC NOT NULL,
		cost_basis NUMERIC NOT NULL,
		current_price NUMERIC NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_holdings_user_id ON holdings(user_id)`,
	`CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		target_amount NUMERIC NOT NULL,
		current_amount NUMERIC NOT NULL DEFAULT 0,
		target_date DATE,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_goals_user_id ON goals(user_id)`,
}

// Migrate creates the tables and indexes if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
