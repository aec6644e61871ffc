package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/apt777/finance-app/internal/model"
	"github.com/apt777/finance-app/internal/portfolio"
	"github.com/apt777/finance-app/internal/store"
)

// PortfolioSummary values the user's holdings in the base currency.
func (s *Service) PortfolioSummary(ctx context.Context, userID string) (portfolio.Summary, error) {
	var holdings []model.Holding
	var rates []model.ExchangeRate
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if holdings, err = tx.ListHoldings(ctx, userID); err != nil {
			return err
		}
		rates, err = tx.ListRates(ctx, userID)
		return err
	})
	if err != nil {
		return portfolio.Summary{}, fmt.Errorf("loading portfolio: %w", err)
	}
	sum := portfolio.Summarize(holdings, s.base, rates)
	s.reportMissing(sum.MissingRates)
	return sum, nil
}

// GoalsSummary returns the progress of every goal of the user.
func (s *Service) GoalsSummary(ctx context.Context, userID string) (portfolio.GoalsSummary, error) {
	goals, err := s.ListGoals(ctx, userID)
	if err != nil {
		return portfolio.GoalsSummary{}, err
	}
	return portfolio.SummarizeGoals(goals, s.now()), nil
}

// GoalProgress returns the progress of one goal.
func (s *Service) GoalProgress(ctx context.Context, userID, id string) (portfolio.GoalProgress, error) {
	g, err := s.GetGoal(ctx, userID, id)
	if err != nil {
		return portfolio.GoalProgress{}, err
	}
	return portfolio.Progress(g, s.now()), nil
}

// NetWorth sums the user's account balances in the base currency.
func (s *Service) NetWorth(ctx context.Context, userID string) (portfolio.NetWorth, error) {
	var accounts []model.Account
	var rates []model.ExchangeRate
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if accounts, err = tx.ListAccounts(ctx, userID); err != nil {
			return err
		}
		rates, err = tx.ListRates(ctx, userID)
		return err
	})
	if err != nil {
		return portfolio.NetWorth{}, fmt.Errorf("loading accounts: %w", err)
	}
	nw := portfolio.ComputeNetWorth(accounts, s.base, rates)
	s.reportMissing(nw.MissingRates)
	return nw, nil
}

// reportMissing logs pairs in the "FROM/TO" form returned by portfolio.
func (s *Service) reportMissing(pairs []string) {
	for _, p := range pairs {
		from, to, _ := strings.Cut(p, "/")
		s.rateMiss(from, to)
	}
}
