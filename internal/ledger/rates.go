package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/currency"
	"github.com/apt777/finance-app/internal/model"
	"github.com/apt777/finance-app/internal/store"
)

// SetRateParams holds parameters for creating or replacing a rate.
type SetRateParams struct {
	From   string
	To     string
	Rate   decimal.Decimal
	Source string // empty = "manual"
}

// UpsertRate creates or replaces the rate for the ordered pair From/To.
func (s *Service) UpsertRate(ctx context.Context, userID string, params SetRateParams) (model.ExchangeRate, error) {
	from, to, err := normalizePair(params.From, params.To)
	if err != nil {
		return model.ExchangeRate{}, err
	}
	if !params.Rate.IsPositive() {
		return model.ExchangeRate{}, fmt.Errorf("rate %s must be positive: %w", params.Rate, model.ErrInvalidAmount)
	}
	source := params.Source
	if source == "" {
		source = "manual"
	}

	r := model.ExchangeRate{
		UserID:       userID,
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         params.Rate,
		Source:       source,
		UpdatedAt:    s.now().UTC(),
	}
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.UpsertRate(ctx, r)
	})
	if err != nil {
		return model.ExchangeRate{}, fmt.Errorf("saving rate %s/%s: %w", from, to, err)
	}
	return r, nil
}

// ListRates returns the user's rates ordered by pair.
func (s *Service) ListRates(ctx context.Context, userID string) ([]model.ExchangeRate, error) {
	var rates []model.ExchangeRate
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		rates, err = tx.ListRates(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing rates: %w", err)
	}
	return rates, nil
}

// DeleteRate removes the rate for the ordered pair from/to.
func (s *Service) DeleteRate(ctx context.Context, userID, from, to string) error {
	from, to, err := normalizePair(from, to)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.DeleteRate(ctx, userID, from, to)
	})
	if err != nil {
		return fmt.Errorf("deleting rate %s/%s: %w", from, to, err)
	}
	return nil
}

// Conversion is the outcome of Convert.
type Conversion struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Converted decimal.Decimal `json:"converted"`
	RateFound bool            `json:"rate_found"`
}

// Convert converts amount with the user's rates. A missing rate is reported
// through RateFound; Converted then equals Amount.
func (s *Service) Convert(ctx context.Context, userID string, amount decimal.Decimal, from, to string) (Conversion, error) {
	from, err := currency.Normalize(from)
	if err != nil {
		return Conversion{}, err
	}
	to, err = currency.Normalize(to)
	if err != nil {
		return Conversion{}, err
	}
	rates, err := s.ListRates(ctx, userID)
	if err != nil {
		return Conversion{}, err
	}

	out := Conversion{Amount: amount, From: from, To: to, RateFound: true}
	out.Converted, err = currency.Convert(amount, from, to, rates)
	if errors.Is(err, model.ErrRateUnavailable) {
		s.rateMiss(from, to)
		out.RateFound = false
	} else if err != nil {
		return Conversion{}, err
	}
	return out, nil
}

func normalizePair(from, to string) (string, string, error) {
	from, err := currency.Normalize(from)
	if err != nil {
		return "", "", err
	}
	to, err = currency.Normalize(to)
	if err != nil {
		return "", "", err
	}
	if from == to {
		return "", "", model.ValidationError{Field: "to_currency", Message: "must differ from from_currency"}
	}
	return from, to, nil
}
