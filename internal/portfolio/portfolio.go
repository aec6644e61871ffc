// Package portfolio aggregates holdings, goals and account balances into
// summary figures. Every function is a pure reduction over its inputs.
package portfolio

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/currency"
	"github.com/apt777/finance-app/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Position is one holding valued in its own and in the base currency.
type Position struct {
	Holding            model.Holding   `json:"holding"`
	Price              decimal.Decimal `json:"price"`
	Value              decimal.Decimal `json:"value"`
	Cost               decimal.Decimal `json:"cost"`
	BaseValue          decimal.Decimal `json:"base_value"`
	BaseCost           decimal.Decimal `json:"base_cost"`
	GainLoss           decimal.Decimal `json:"gain_loss"`
	GainLossPercentage decimal.Decimal `json:"gain_loss_percentage"`
	Weight             decimal.Decimal `json:"weight"`
}

// Summary totals a set of holdings in the base currency.
type Summary struct {
	Currency           string          `json:"currency"`
	TotalValue         decimal.Decimal `json:"total_value"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	GainLoss           decimal.Decimal `json:"gain_loss"`
	GainLossPercentage decimal.Decimal `json:"gain_loss_percentage"`
	Positions          []Position      `json:"positions"`
	MissingRates       []string        `json:"missing_rates,omitempty"`
}

// Percent returns part/whole as a percentage rounded to two places, or zero
// when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// Summarize values each holding at its current price, falling back to its
// cost basis when no price is tracked, and converts into base.
func Summarize(holdings []model.Holding, base string, rates []model.ExchangeRate) Summary {
	s := Summary{
		Currency:   base,
		TotalValue: decimal.Zero,
		TotalCost:  decimal.Zero,
		Positions:  make([]Position, 0, len(holdings)),
	}
	missing := newMissingSet()

	for _, h := range holdings {
		price := h.CurrentPrice
		if price.IsZero() {
			price = h.CostBasis
		}
		p := Position{
			Holding: h,
			Price:   price,
			Value:   h.Shares.Mul(price),
			Cost:    h.Shares.Mul(h.CostBasis),
		}
		p.BaseValue = missing.convert(p.Value, h.Currency, base, rates)
		p.BaseCost = missing.convert(p.Cost, h.Currency, base, rates)
		p.GainLoss = p.BaseValue.Sub(p.BaseCost)
		p.GainLossPercentage = Percent(p.GainLoss, p.BaseCost)

		s.TotalValue = s.TotalValue.Add(p.BaseValue)
		s.TotalCost = s.TotalCost.Add(p.BaseCost)
		s.Positions = append(s.Positions, p)
	}

	for i := range s.Positions {
		s.Positions[i].Weight = Percent(s.Positions[i].BaseValue, s.TotalValue)
	}
	s.GainLoss = s.TotalValue.Sub(s.TotalCost)
	s.GainLossPercentage = Percent(s.GainLoss, s.TotalCost)
	s.MissingRates = missing.list()
	return s
}

// missingSet collects currency pairs that had no rate during a reduction.
type missingSet map[string]struct{}

func newMissingSet() missingSet { return make(missingSet) }

func (m missingSet) convert(amount decimal.Decimal, from, to string, rates []model.ExchangeRate) decimal.Decimal {
	v, err := currency.Convert(amount, from, to, rates)
	if errors.Is(err, model.ErrRateUnavailable) {
		m[from+"/"+to] = struct{}{}
	}
	return v
}

func (m missingSet) list() []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
