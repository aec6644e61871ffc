package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/config"
	"github.com/apt777/finance-app/internal/model"
)

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database described by cfg and pings it.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// WithTx implements Store.
func (p *Postgres) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

// Close implements Store.
func (p *Postgres) Close() {
	p.pool.Close()
}

type pgTx struct {
	tx pgx.Tx
}

const accountColumns = `id, user_id, name, type, balance, currency, created_at, updated_at`

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (t *pgTx) CreateAccount(ctx context.Context, a model.Account) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.Name, a.Type, a.Balance, a.Currency, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", mapError(err))
	}
	return nil
}

func (t *pgTx) GetAccount(ctx context.Context, userID, id string) (model.Account, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID,
	)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, notFound("account", id)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("query account: %w", err)
	}
	return a, nil
}

func (t *pgTx) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (t *pgTx) UpdateAccount(ctx context.Context, a model.Account) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE accounts SET name = $3, type = $4, updated_at = $5 WHERE id = $1 AND user_id = $2`,
		a.ID, a.UserID, a.Name, a.Type, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("account", a.ID)
	}
	return nil
}

func (t *pgTx) SetBalance(ctx context.Context, userID, id string, balance decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE accounts SET balance = $3, updated_at = now() WHERE id = $1 AND user_id = $2`,
		id, userID, balance,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("account", id)
	}
	return nil
}

func (t *pgTx) DeleteAccount(ctx context.Context, userID, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return notFound("account", id)
	}
	return nil
}

const transactionColumns = `id, user_id, kind, amount, to_amount, currency, date, description,
	COALESCE(account_id, ''), COALESCE(from_account_id, ''), COALESCE(to_account_id, ''), created_at`

func scanTransaction(row pgx.Row) (model.Transaction, error) {
	var rec model.Transaction
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Kind, &rec.Amount, &rec.ToAmount, &rec.Currency, &rec.Date,
		&rec.Description, &rec.AccountID, &rec.FromAccountID, &rec.ToAccountID, &rec.CreatedAt)
	return rec, err
}

func (t *pgTx) InsertTransaction(ctx context.Context, rec model.Transaction) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, kind, amount, to_amount, currency, date, description,
			account_id, from_account_id, to_account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12)`,
		rec.ID, rec.UserID, rec.Kind, rec.Amount, rec.ToAmount, rec.Currency, rec.Date, rec.Description,
		rec.AccountID, rec.FromAccountID, rec.ToAccountID, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", mapError(err))
	}
	return nil
}

func (t *pgTx) GetTransaction(ctx context.Context, userID, id string) (model.Transaction, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	rec, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Transaction{}, notFound("transaction", id)
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("query transaction: %w", err)
	}
	return rec, nil
}

func (t *pgTx) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]model.Transaction, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.AccountID != "" {
		add("(account_id = $%[1]d OR from_account_id = $%[1]d OR to_account_id = $%[1]d)", f.AccountID)
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if !f.From.IsZero() {
		add("date >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("date < $%d", f.To)
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date DESC, created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *pgTx) DeleteTransaction(ctx context.Context, userID, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("transaction", id)
	}
	return nil
}

func (t *pgTx) UpsertRate(ctx context.Context, r model.ExchangeRate) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO exchange_rates (user_id, from_currency, to_currency, rate, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, from_currency, to_currency)
		DO UPDATE SET rate = EXCLUDED.rate, source = EXCLUDED.source, updated_at = EXCLUDED.updated_at`,
		r.UserID, r.FromCurrency, r.ToCurrency, r.Rate, r.Source, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert exchange rate: %w", mapError(err))
	}
	return nil
}

func (t *pgTx) ListRates(ctx context.Context, userID string) ([]model.ExchangeRate, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT user_id, from_currency, to_currency, rate, source, updated_at
		FROM exchange_rates WHERE user_id = $1 ORDER BY from_currency, to_currency`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query exchange rates: %w", err)
	}
	defer rows.Close()

	var out []model.ExchangeRate
	for rows.Next() {
		var r model.ExchangeRate
		if err := rows.Scan(&r.UserID, &r.FromCurrency, &r.ToCurrency, &r.Rate, &r.Source, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange rate: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *pgTx) DeleteRate(ctx context.Context, userID, from, to string) error {
	tag, err := t.tx.Exec(ctx,
		`DELETE FROM exchange_rates WHERE user_id = $1 AND from_currency = $2 AND to_currency = $3`,
		userID, from, to,
	)
	if err != nil {
		return fmt.Errorf("delete exchange rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("exchange rate", from+"/"+to)
	}
	return nil
}

const holdingColumns = `id, user_id, account_id, symbol, shares, cost_basis, current_price, currency, updated_at`

func scanHolding(row pgx.Row) (model.Holding, error) {
	var h model.Holding
	err := row.Scan(&h.ID, &h.UserID, &h.AccountID, &h.Symbol, &h.Shares, &h.CostBasis, &h.CurrentPrice, &h.Currency, &h.UpdatedAt)
	return h, err
}

func (t *pgTx) SaveHolding(ctx context.Context, h model.Holding) error {
	tag, err := t.tx.Exec(ctx,
		`INSERT INTO holdings (`+holdingColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET account_id = EXCLUDED.account_id, symbol = EXCLUDED.symbol,
			shares = EXCLUDED.shares, cost_basis = EXCLUDED.cost_basis, current_price = EXCLUDED.current_price,
			currency = EXCLUDED.currency, updated_at = EXCLUDED.updated_at
		WHERE holdings.user_id = EXCLUDED.user_id`,
		h.ID, h.UserID, h.AccountID, h.Symbol, h.Shares, h.CostBasis, h.CurrentPrice, h.Currency, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save holding: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return notFound("holding", h.ID)
	}
	return nil
}

func (t *pgTx) GetHolding(ctx context.Context, userID, id string) (model.Holding, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+holdingColumns+` FROM holdings WHERE id = $1 AND user_id = $2`, id, userID)
	h, err := scanHolding(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Holding{}, notFound("holding", id)
	}
	if err != nil {
		return model.Holding{}, fmt.Errorf("query holding: %w", err)
	}
	return h, nil
}

func (t *pgTx) ListHoldings(ctx context.Context, userID string) ([]model.Holding, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+holdingColumns+` FROM holdings WHERE user_id = $1 ORDER BY symbol, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	var out []model.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (t *pgTx) DeleteHolding(ctx context.Context, userID, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM holdings WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete holding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("holding", id)
	}
	return nil
}

const goalColumns = `id, user_id, name, target_amount, current_amount, target_date, updated_at`

func scanGoal(row pgx.Row) (model.Goal, error) {
	var g model.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, &g.UpdatedAt)
	return g, err
}

func (t *pgTx) SaveGoal(ctx context.Context, g model.Goal) error {
	tag, err := t.tx.Exec(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, target_amount = EXCLUDED.target_amount,
			current_amount = EXCLUDED.current_amount, target_date = EXCLUDED.target_date,
			updated_at = EXCLUDED.updated_at
		WHERE goals.user_id = EXCLUDED.user_id`,
		g.ID, g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, g.TargetDate, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("goal", g.ID)
	}
	return nil
}

func (t *pgTx) GetGoal(ctx context.Context, userID, id string) (model.Goal, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Goal{}, notFound("goal", id)
	}
	if err != nil {
		return model.Goal{}, fmt.Errorf("query goal: %w", err)
	}
	return g, nil
}

func (t *pgTx) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (t *pgTx) DeleteGoal(ctx context.Context, userID, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("goal", id)
	}
	return nil
}

// mapError translates constraint violations into the model taxonomy.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		return fmt.Errorf("%s: %w", pgErr.Message, model.ErrInvalidOperation)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%s: %w", pgErr.Message, model.ErrInvalidOperation)
	case "23514": // check_violation
		return fmt.Errorf("%s: %w", pgErr.Message, model.ErrInvalidOperation)
	}
	return err
}
