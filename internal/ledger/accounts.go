package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/currency"
	"github.com/apt777/finance-app/internal/model"
	"github.com/apt777/finance-app/internal/store"
)

// CreateAccountParams holds parameters for creating an account.
type CreateAccountParams struct {
	Name     string
	Type     string
	Currency string // empty = base currency
	// Balance is the opening balance. For a credit card it is the amount owed.
	Balance decimal.Decimal
}

// CreateAccount validates params and stores a new account.
func (s *Service) CreateAccount(ctx context.Context, userID string, params CreateAccountParams) (model.Account, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return model.Account{}, model.ValidationError{Field: "name", Message: "is required"}
	}
	typ, err := model.ParseAccountType(params.Type)
	if err != nil {
		return model.Account{}, err
	}
	code := params.Currency
	if code == "" {
		code = s.base
	}
	code, err = currency.Normalize(code)
	if err != nil {
		return model.Account{}, err
	}

	now := s.now().UTC()
	acct := model.Account{
		ID:        s.newID(),
		UserID:    userID,
		Name:      name,
		Type:      typ,
		Balance:   params.Balance,
		Currency:  code,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.CreateAccount(ctx, acct)
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("creating account: %w", err)
	}
	return acct, nil
}

// UpdateAccountParams holds the mutable fields of an account. Nil fields are
// left unchanged.
type UpdateAccountParams struct {
	Name *string
	Type *string
}

// UpdateAccount renames an account or changes its type. Changing between
// asset and liability types is rejected because it would change the meaning
// of the stored balance.
func (s *Service) UpdateAccount(ctx context.Context, userID, id string, params UpdateAccountParams) (model.Account, error) {
	var acct model.Account
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		acct, err = tx.GetAccount(ctx, userID, id)
		if err != nil {
			return err
		}
		if params.Name != nil {
			name := strings.TrimSpace(*params.Name)
			if name == "" {
				return model.ValidationError{Field: "name", Message: "is required"}
			}
			acct.Name = name
		}
		if params.Type != nil {
			typ, err := model.ParseAccountType(*params.Type)
			if err != nil {
				return err
			}
			if typ.Class() != acct.Class() {
				return fmt.Errorf("changing account %s from %s to %s: %w", id, acct.Class(), typ.Class(), model.ErrInvalidOperation)
			}
			acct.Type = typ
		}
		acct.UpdatedAt = s.now().UTC()
		return tx.UpdateAccount(ctx, acct)
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("updating account %s: %w", id, err)
	}
	return acct, nil
}

// DeleteAccount removes an account and its holdings. Accounts referenced by
// transactions cannot be deleted; delete the transactions first.
func (s *Service) DeleteAccount(ctx context.Context, userID, id string) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetAccount(ctx, userID, id); err != nil {
			return err
		}
		recs, err := tx.ListTransactions(ctx, userID, store.TransactionFilter{AccountID: id, Limit: 1})
		if err != nil {
			return err
		}
		if len(recs) > 0 {
			return fmt.Errorf("account %s has transactions: %w", id, model.ErrInvalidOperation)
		}
		holdings, err := tx.ListHoldings(ctx, userID)
		if err != nil {
			return err
		}
		for _, h := range holdings {
			if h.AccountID != id {
				continue
			}
			if err := tx.DeleteHolding(ctx, userID, h.ID); err != nil {
				return err
			}
		}
		return tx.DeleteAccount(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}
	return nil
}

// GetAccount returns one of the user's accounts.
func (s *Service) GetAccount(ctx context.Context, userID, id string) (model.Account, error) {
	var acct model.Account
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		acct, err = tx.GetAccount(ctx, userID, id)
		return err
	})
	return acct, err
}

// ListAccounts returns the user's accounts in creation order.
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	var accts []model.Account
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		accts, err = tx.ListAccounts(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accts, nil
}
