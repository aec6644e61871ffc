package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/balance"
	"github.com/apt777/finance-app/internal/model"
	"github.com/apt777/finance-app/internal/store"
)

type transactionRequest struct {
	Kind          model.Kind      `json:"kind"`
	AccountID     string          `json:"account_id"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
}

// operation turns the request into a balance operation.
func (req transactionRequest) operation() (balance.Operation, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	switch req.Kind {
	case model.KindIncome:
		return balance.Income{AccountID: req.AccountID, Amount: req.Amount, Currency: req.Currency, Date: date, Description: req.Description}, nil
	case model.KindExpense:
		return balance.Expense{AccountID: req.AccountID, Amount: req.Amount, Currency: req.Currency, Date: date, Description: req.Description}, nil
	case model.KindTransfer:
		return balance.Transfer{
			FromAccountID: req.FromAccountID,
			ToAccountID:   req.ToAccountID,
			Amount:        req.Amount,
			Currency:      req.Currency,
			Date:          date,
			Description:   req.Description,
		}, nil
	default:
		return nil, model.ValidationError{Field: "kind", Message: "must be income, expense or transfer"}
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.record(w, r, req)
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Kind = model.KindTransfer
	s.record(w, r, req)
}

func (s *Server) record(w http.ResponseWriter, r *http.Request, req transactionRequest) {
	op, err := req.operation()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ledger.Record(r.Context(), UserID(r.Context()), op)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res.Transaction)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDate("from", q.Get("from"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := parseDate("to", q.Get("to"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f := store.TransactionFilter{
		AccountID: q.Get("account_id"),
		Kind:      model.Kind(q.Get("kind")),
		From:      from,
		To:        to,
		Limit:     limit,
	}
	recs, err := s.ledger.ListTransactions(r.Context(), UserID(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	rec, err := s.ledger.GetTransaction(r.Context(), UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.Delete(r.Context(), UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
