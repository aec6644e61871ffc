package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the user-facing kind of an account.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCash       AccountType = "cash"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeOther      AccountType = "other"
)

// AccountTypes lists every supported account type.
var AccountTypes = []AccountType{
	AccountTypeChecking,
	AccountTypeSavings,
	AccountTypeInvestment,
	AccountTypeCash,
	AccountTypeCreditCard,
	AccountTypeOther,
}

// ParseAccountType validates s as an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	for _, t := range AccountTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown account type %q: %w", s, ErrInvalidOperation)
}

// AccountClass decides how a balance is interpreted.
type AccountClass string

const (
	// ClassAsset balances are money owned.
	ClassAsset AccountClass = "asset"
	// ClassLiability balances are money owed; a higher balance is more debt.
	ClassLiability AccountClass = "liability"
)

// Class returns the balance class for the account type.
func (t AccountType) Class() AccountClass {
	if t == AccountTypeCreditCard {
		return ClassLiability
	}
	return ClassAsset
}

// Account is a user's account with its persisted balance.
type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Class returns the balance class of the account.
func (a Account) Class() AccountClass {
	return a.Type.Class()
}

// IsLiability reports whether the balance represents debt.
func (a Account) IsLiability() bool {
	return a.Class() == ClassLiability
}
