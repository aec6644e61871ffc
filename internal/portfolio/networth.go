package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/model"
)

// AccountValue is an account balance converted into the base currency.
type AccountValue struct {
	Account     model.Account   `json:"account"`
	BaseBalance decimal.Decimal `json:"base_balance"`
}

// NetWorth is assets minus liabilities in the base currency.
type NetWorth struct {
	Currency     string          `json:"currency"`
	Assets       decimal.Decimal `json:"assets"`
	Liabilities  decimal.Decimal `json:"liabilities"`
	Total        decimal.Decimal `json:"total"`
	Accounts     []AccountValue  `json:"accounts"`
	MissingRates []string        `json:"missing_rates,omitempty"`
}

// ComputeNetWorth sums account balances by class. Credit card balances are
// debt and count towards Liabilities.
func ComputeNetWorth(accounts []model.Account, base string, rates []model.ExchangeRate) NetWorth {
	nw := NetWorth{
		Currency:    base,
		Assets:      decimal.Zero,
		Liabilities: decimal.Zero,
		Accounts:    make([]AccountValue, 0, len(accounts)),
	}
	missing := newMissingSet()

	for _, a := range accounts {
		v := missing.convert(a.Balance, a.Currency, base, rates)
		nw.Accounts = append(nw.Accounts, AccountValue{Account: a, BaseBalance: v})
		if a.IsLiability() {
			nw.Liabilities = nw.Liabilities.Add(v)
		} else {
			nw.Assets = nw.Assets.Add(v)
		}
	}
	nw.Total = nw.Assets.Sub(nw.Liabilities)
	nw.MissingRates = missing.list()
	return nw
}
