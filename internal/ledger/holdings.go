package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/currency"
	"github.com/apt777/finance-app/internal/model"
	"github.com/apt777/finance-app/internal/store"
)

// HoldingParams holds the fields of a holding.
type HoldingParams struct {
	AccountID    string
	Symbol       string
	Shares       decimal.Decimal
	CostBasis    decimal.Decimal // per share
	CurrentPrice decimal.Decimal // zero = not tracked
	Currency     string          // empty = account currency
}

// CreateHolding adds a holding to one of the user's investment accounts.
func (s *Service) CreateHolding(ctx context.Context, userID string, params HoldingParams) (model.Holding, error) {
	return s.saveHolding(ctx, userID, "", params)
}

// UpdateHolding replaces the fields of an existing holding.
func (s *Service) UpdateHolding(ctx context.Context, userID, id string, params HoldingParams) (model.Holding, error) {
	return s.saveHolding(ctx, userID, id, params)
}

func (s *Service) saveHolding(ctx context.Context, userID, id string, params HoldingParams) (model.Holding, error) {
	symbol := strings.ToUpper(strings.TrimSpace(params.Symbol))
	if symbol == "" {
		return model.Holding{}, model.ValidationError{Field: "symbol", Message: "is required"}
	}
	if !params.Shares.IsPositive() {
		return model.Holding{}, fmt.Errorf("shares %s must be positive: %w", params.Shares, model.ErrInvalidAmount)
	}
	if params.CostBasis.IsNegative() || params.CurrentPrice.IsNegative() {
		return model.Holding{}, fmt.Errorf("prices must not be negative: %w", model.ErrInvalidAmount)
	}

	var h model.Holding
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if id != "" {
			if _, err := tx.GetHolding(ctx, userID, id); err != nil {
				return err
			}
		}
		acct, err := tx.GetAccount(ctx, userID, params.AccountID)
		if err != nil {
			return err
		}
		if acct.Type != model.AccountTypeInvestment {
			return fmt.Errorf("account %s is %s, not investment: %w", acct.ID, acct.Type, model.ErrInvalidOperation)
		}
		code := params.Currency
		if code == "" {
			code = acct.Currency
		}
		if code, err = currency.Normalize(code); err != nil {
			return err
		}

		h = model.Holding{
			ID:           id,
			UserID:       userID,
			AccountID:    acct.ID,
			Symbol:       symbol,
			Shares:       params.Shares,
			CostBasis:    params.CostBasis,
			CurrentPrice: params.CurrentPrice,
			Currency:     code,
			UpdatedAt:    s.now().UTC(),
		}
		if h.ID == "" {
			h.ID = s.newID()
		}
		return tx.SaveHolding(ctx, h)
	})
	if err != nil {
		return model.Holding{}, fmt.Errorf("saving holding %s: %w", symbol, err)
	}
	return h, nil
}

// DeleteHolding removes a holding.
func (s *Service) DeleteHolding(ctx context.Context, userID, id string) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.DeleteHolding(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("deleting holding %s: %w", id, err)
	}
	return nil
}

// GetHolding returns one of the user's holdings.
func (s *Service) GetHolding(ctx context.Context, userID, id string) (model.Holding, error) {
	var h model.Holding
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		h, err = tx.GetHolding(ctx, userID, id)
		return err
	})
	return h, err
}

// ListHoldings returns the user's holdings ordered by symbol.
func (s *Service) ListHoldings(ctx context.Context, userID string) ([]model.Holding, error) {
	var hs []model.Holding
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		hs, err = tx.ListHoldings(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	return hs, nil
}

// GoalParams holds the fields of a goal.
type GoalParams struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    *time.Time
}

// CreateGoal stores a new goal.
func (s *Service) CreateGoal(ctx context.Context, userID string, params GoalParams) (model.Goal, error) {
	return s.saveGoal(ctx, userID, "", params)
}

// UpdateGoal replaces the fields of an existing goal.
func (s *Service) UpdateGoal(ctx context.Context, userID, id string, params GoalParams) (model.Goal, error) {
	return s.saveGoal(ctx, userID, id, params)
}

func (s *Service) saveGoal(ctx context.Context, userID, id string, params GoalParams) (model.Goal, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return model.Goal{}, model.ValidationError{Field: "name", Message: "is required"}
	}
	if !params.TargetAmount.IsPositive() {
		return model.Goal{}, fmt.Errorf("target amount %s must be positive: %w", params.TargetAmount, model.ErrInvalidAmount)
	}
	if params.CurrentAmount.IsNegative() {
		return model.Goal{}, fmt.Errorf("current amount %s must not be negative: %w", params.CurrentAmount, model.ErrInvalidAmount)
	}

	g := model.Goal{
		ID:            id,
		UserID:        userID,
		Name:          name,
		TargetAmount:  params.TargetAmount,
		CurrentAmount: params.CurrentAmount,
		TargetDate:    params.TargetDate,
		UpdatedAt:     s.now().UTC(),
	}
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if g.ID == "" {
			g.ID = s.newID()
		} else if _, err := tx.GetGoal(ctx, userID, g.ID); err != nil {
			return err
		}
		return tx.SaveGoal(ctx, g)
	})
	if err != nil {
		return model.Goal{}, fmt.Errorf("saving goal %q: %w", name, err)
	}
	return g, nil
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, userID, id string) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.DeleteGoal(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("deleting goal %s: %w", id, err)
	}
	return nil
}

// GetGoal returns one of the user's goals.
func (s *Service) GetGoal(ctx context.Context, userID, id string) (model.Goal, error) {
	var g model.Goal
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		g, err = tx.GetGoal(ctx, userID, id)
		return err
	})
	return g, err
}

// ListGoals returns the user's goals ordered by name.
func (s *Service) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	var gs []model.Goal
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		gs, err = tx.ListGoals(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	return gs, nil
}
