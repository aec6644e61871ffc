package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/balance"
	"github.com/apt777/finance-app/internal/currency"
	"github.com/apt777/finance-app/internal/model"
	"github.com/apt777/finance-app/internal/store"
)

// Result is a committed unit of work.
type Result struct {
	Transaction model.Transaction `json:"transaction"`
	Changes     []balance.Change  `json:"-"`
}

// Record applies an Income, Expense or Transfer and stores the resulting
// transaction. A balance.Delete is resolved against the stored record with
// the same id and reverses it.
func (s *Service) Record(ctx context.Context, userID string, op balance.Operation) (Result, error) {
	if del, ok := op.(balance.Delete); ok {
		return s.Delete(ctx, userID, del.Transaction.ID)
	}

	start := time.Now()
	kind := operationKind(op)
	var res Result
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		accounts, err := lockAccounts(ctx, tx, userID, op.AccountIDs())
		if err != nil {
			return err
		}
		if t, ok := op.(balance.Transfer); ok {
			if op, err = s.priceTransfer(ctx, tx, userID, t, accounts); err != nil {
				return err
			}
		}

		uow, err := balance.Apply(op, accounts...)
		if err != nil {
			return err
		}
		rec := *uow.Create
		rec.ID = s.newID()
		rec.UserID = userID
		rec.CreatedAt = s.now().UTC()
		if rec.Date.IsZero() {
			rec.Date = s.today()
		}

		if err := persist(ctx, tx, userID, uow); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, rec); err != nil {
			return err
		}
		res = Result{Transaction: rec, Changes: uow.Changes}
		return nil
	})
	s.observe(kind, start, err)
	if err != nil {
		return Result{}, fmt.Errorf("recording %s: %w", kind, err)
	}

	s.publisher.Publish(userID, Event{
		Type:        EventTransactionCreated,
		Transaction: &res.Transaction,
		Balances:    balanceUpdates(res.Changes),
	})
	return res, nil
}

// priceTransfer fills in ToAmount for a transfer between accounts of
// different currencies using the user's exchange rates. A missing rate is
// not fatal: the amount is credited unchanged. A ToAmount set by the caller
// is kept for cross-currency transfers and checked by the engine otherwise.
func (s *Service) priceTransfer(ctx context.Context, tx store.Tx, userID string, t balance.Transfer, accounts []model.Account) (balance.Transfer, error) {
	if !t.ToAmount.IsZero() || !t.Amount.IsPositive() {
		return t, nil
	}
	var from, to model.Account
	for _, a := range accounts {
		switch a.ID {
		case t.FromAccountID:
			from = a
		case t.ToAccountID:
			to = a
		}
	}
	if from.Currency == to.Currency {
		return t, nil
	}

	rates, err := tx.ListRates(ctx, userID)
	if err != nil {
		return t, err
	}
	converted, err := currency.Convert(t.Amount, from.Currency, to.Currency, rates)
	if errors.Is(err, model.ErrRateUnavailable) {
		s.rateMiss(from.Currency, to.Currency)
		t.ToAmount = converted
		return t, nil
	} else if err != nil {
		return t, err
	}
	t.ToAmount = currency.Round(converted, to.Currency)
	if !t.ToAmount.IsPositive() {
		// Rounding a tiny amount into a zero-decimal currency.
		t.ToAmount = converted
	}
	return t, nil
}

// Delete removes a transaction and reverses its balance effect.
func (s *Service) Delete(ctx context.Context, userID, transactionID string) (Result, error) {
	start := time.Now()
	var res Result
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		rec, err := tx.GetTransaction(ctx, userID, transactionID)
		if err != nil {
			return err
		}
		op := balance.Delete{Transaction: rec}
		accounts, err := lockAccounts(ctx, tx, userID, op.AccountIDs())
		if err != nil {
			return err
		}
		uow, err := balance.Apply(op, accounts...)
		if err != nil {
			return err
		}
		if err := persist(ctx, tx, userID, uow); err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, userID, rec.ID); err != nil {
			return err
		}
		res = Result{Transaction: rec, Changes: uow.Changes}
		return nil
	})
	s.observe("delete", start, err)
	if err != nil {
		return Result{}, fmt.Errorf("deleting transaction %s: %w", transactionID, err)
	}

	s.publisher.Publish(userID, Event{
		Type:        EventTransactionDeleted,
		Transaction: &res.Transaction,
		Balances:    balanceUpdates(res.Changes),
	})
	return res, nil
}

// GetTransaction returns one of the user's transactions.
func (s *Service) GetTransaction(ctx context.Context, userID, id string) (model.Transaction, error) {
	var rec model.Transaction
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		rec, err = tx.GetTransaction(ctx, userID, id)
		return err
	})
	return rec, err
}

// ListTransactions returns the user's transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string, f store.TransactionFilter) ([]model.Transaction, error) {
	var recs []model.Transaction
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		recs, err = tx.ListTransactions(ctx, userID, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return recs, nil
}

// ImportResult summarizes an Import.
type ImportResult struct {
	Imported     int                 `json:"imported"`
	Skipped      int                 `json:"skipped"`
	Balance      decimal.Decimal     `json:"balance"`
	Transactions []model.Transaction `json:"transactions"`
}

// Import records every row against one account in a single unit of work.
// Positive amounts are income, negative amounts expenses and zero rows are
// skipped. Any invalid row aborts the whole import.
func (s *Service) Import(ctx context.Context, userID, accountID string, rows []model.ImportRow) (ImportResult, error) {
	start := time.Now()
	var res ImportResult
	var changes []balance.Change
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		acct, err := tx.GetAccount(ctx, userID, accountID)
		if err != nil {
			return err
		}
		opening := acct.Balance
		res = ImportResult{}

		for i, row := range rows {
			if row.Amount.IsZero() {
				res.Skipped++
				continue
			}
			op := importOperation(accountID, row)
			uow, err := balance.Apply(op, acct)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			rec := *uow.Create
			rec.ID = s.newID()
			rec.UserID = userID
			rec.CreatedAt = s.now().UTC()
			if rec.Date.IsZero() {
				rec.Date = s.today()
			}
			if err := tx.InsertTransaction(ctx, rec); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			acct.Balance, _ = uow.Balance(accountID)
			res.Imported++
			res.Transactions = append(res.Transactions, rec)
		}

		if err := tx.SetBalance(ctx, userID, accountID, acct.Balance); err != nil {
			return err
		}
		res.Balance = acct.Balance
		changes = []balance.Change{{AccountID: acct.ID, Currency: acct.Currency, Before: opening, After: acct.Balance}}
		return nil
	})
	s.observe("import", start, err)
	if err != nil {
		return ImportResult{}, fmt.Errorf("importing into account %s: %w", accountID, err)
	}

	if res.Imported > 0 {
		s.publisher.Publish(userID, Event{
			Type:     EventImportCompleted,
			Imported: res.Imported,
			Balances: balanceUpdates(changes),
		})
	}
	return res, nil
}

func importOperation(accountID string, row model.ImportRow) balance.Operation {
	desc := row.Description
	if row.Reference != "" {
		desc = fmt.Sprintf("%s [%s]", desc, row.Reference)
	}
	if row.Amount.IsNegative() {
		return balance.Expense{AccountID: accountID, Amount: row.Amount.Abs(), Currency: row.Currency, Date: row.Date, Description: desc}
	}
	return balance.Income{AccountID: accountID, Amount: row.Amount, Currency: row.Currency, Date: row.Date, Description: desc}
}

func operationKind(op balance.Operation) string {
	switch op.(type) {
	case balance.Income:
		return string(model.KindIncome)
	case balance.Expense:
		return string(model.KindExpense)
	case balance.Transfer:
		return string(model.KindTransfer)
	case balance.Delete:
		return "delete"
	default:
		return "unknown"
	}
}
