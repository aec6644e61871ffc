package store

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/model"
)

// Memory is an in-process Store. Transactions are serialized and work on a
// copy of the state that replaces the original on commit.
type Memory struct {
	mu    sync.Mutex
	state memState
}

type rateKey struct {
	userID, from, to string
}

type memState struct {
	accounts     map[string]model.Account
	transactions map[string]model.Transaction
	rates        map[rateKey]model.ExchangeRate
	holdings     map[string]model.Holding
	goals        map[string]model.Goal
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: memState{
		accounts:     make(map[string]model.Account),
		transactions: make(map[string]model.Transaction),
		rates:        make(map[rateKey]model.ExchangeRate),
		holdings:     make(map[string]model.Holding),
		goals:        make(map[string]model.Goal),
	}}
}

func (s memState) clone() memState {
	return memState{
		accounts:     maps.Clone(s.accounts),
		transactions: maps.Clone(s.transactions),
		rates:        maps.Clone(s.rates),
		holdings:     maps.Clone(s.holdings),
		goals:        maps.Clone(s.goals),
	}
}

// WithTx implements Store.
func (m *Memory) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{state: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

// Close implements Store.
func (m *Memory) Close() {}

type memTx struct {
	state memState
}

func (t *memTx) CreateAccount(_ context.Context, a model.Account) error {
	if _, ok := t.state.accounts[a.ID]; ok {
		return fmt.Errorf("account %s already exists: %w", a.ID, model.ErrInvalidOperation)
	}
	t.state.accounts[a.ID] = a
	return nil
}

func (t *memTx) GetAccount(_ context.Context, userID, id string) (model.Account, error) {
	a, ok := t.state.accounts[id]
	if !ok || a.UserID != userID {
		return model.Account{}, notFound("account", id)
	}
	return a, nil
}

func (t *memTx) ListAccounts(_ context.Context, userID string) ([]model.Account, error) {
	var out []model.Account
	for _, a := range t.state.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memTx) UpdateAccount(ctx context.Context, a model.Account) error {
	cur, err := t.GetAccount(ctx, a.UserID, a.ID)
	if err != nil {
		return err
	}
	cur.Name = a.Name
	cur.Type = a.Type
	cur.UpdatedAt = a.UpdatedAt
	t.state.accounts[a.ID] = cur
	return nil
}

func (t *memTx) SetBalance(ctx context.Context, userID, id string, balance decimal.Decimal) error {
	a, err := t.GetAccount(ctx, userID, id)
	if err != nil {
		return err
	}
	a.Balance = balance
	t.state.accounts[id] = a
	return nil
}

func (t *memTx) DeleteAccount(ctx context.Context, userID, id string) error {
	if _, err := t.GetAccount(ctx, userID, id); err != nil {
		return err
	}
	delete(t.state.accounts, id)
	return nil
}

func (t *memTx) InsertTransaction(_ context.Context, rec model.Transaction) error {
	if _, ok := t.state.transactions[rec.ID]; ok {
		return fmt.Errorf("transaction %s already exists: %w", rec.ID, model.ErrInvalidOperation)
	}
	t.state.transactions[rec.ID] = rec
	return nil
}

func (t *memTx) GetTransaction(_ context.Context, userID, id string) (model.Transaction, error) {
	rec, ok := t.state.transactions[id]
	if !ok || rec.UserID != userID {
		return model.Transaction{}, notFound("transaction", id)
	}
	return rec, nil
}

func (t *memTx) ListTransactions(_ context.Context, userID string, f TransactionFilter) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, rec := range t.state.transactions {
		if rec.UserID == userID && f.Match(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (t *memTx) DeleteTransaction(ctx context.Context, userID, id string) error {
	if _, err := t.GetTransaction(ctx, userID, id); err != nil {
		return err
	}
	delete(t.state.transactions, id)
	return nil
}

func (t *memTx) UpsertRate(_ context.Context, r model.ExchangeRate) error {
	t.state.rates[rateKey{r.UserID, r.FromCurrency, r.ToCurrency}] = r
	return nil
}

func (t *memTx) ListRates(_ context.Context, userID string) ([]model.ExchangeRate, error) {
	var out []model.ExchangeRate
	for k, r := range t.state.rates {
		if k.userID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromCurrency != out[j].FromCurrency {
			return out[i].FromCurrency < out[j].FromCurrency
		}
		return out[i].ToCurrency < out[j].ToCurrency
	})
	return out, nil
}

func (t *memTx) DeleteRate(_ context.Context, userID, from, to string) error {
	k := rateKey{userID, from, to}
	if _, ok := t.state.rates[k]; !ok {
		return notFound("exchange rate", from+"/"+to)
	}
	delete(t.state.rates, k)
	return nil
}

func (t *memTx) SaveHolding(_ context.Context, h model.Holding) error {
	if cur, ok := t.state.holdings[h.ID]; ok && cur.UserID != h.UserID {
		return notFound("holding", h.ID)
	}
	t.state.holdings[h.ID] = h
	return nil
}

func (t *memTx) GetHolding(_ context.Context, userID, id string) (model.Holding, error) {
	h, ok := t.state.holdings[id]
	if !ok || h.UserID != userID {
		return model.Holding{}, notFound("holding", id)
	}
	return h, nil
}

func (t *memTx) ListHoldings(_ context.Context, userID string) ([]model.Holding, error) {
	var out []model.Holding
	for _, h := range t.state.holdings {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memTx) DeleteHolding(ctx context.Context, userID, id string) error {
	if _, err := t.GetHolding(ctx, userID, id); err != nil {
		return err
	}
	delete(t.state.holdings, id)
	return nil
}

func (t *memTx) SaveGoal(_ context.Context, g model.Goal) error {
	if cur, ok := t.state.goals[g.ID]; ok && cur.UserID != g.UserID {
		return notFound("goal", g.ID)
	}
	t.state.goals[g.ID] = g
	return nil
}

func (t *memTx) GetGoal(_ context.Context, userID, id string) (model.Goal, error) {
	g, ok := t.state.goals[id]
	if !ok || g.UserID != userID {
		return model.Goal{}, notFound("goal", id)
	}
	return g, nil
}

func (t *memTx) ListGoals(_ context.Context, userID string) ([]model.Goal, error) {
	var out []model.Goal
	for _, g := range t.state.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memTx) DeleteGoal(ctx context.Context, userID, id string) error {
	if _, err := t.GetGoal(ctx, userID, id); err != nil {
		return err
	}
	delete(t.state.goals, id)
	return nil
}
