package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/apt777/finance-app/internal/export"
	"github.com/apt777/finance-app/internal/model"
	"github.com/apt777/finance-app/internal/store"
)

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ledger.PortfolioSummary(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	nw, err := s.ledger.NetWorth(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nw)
}

func (s *Server) handleGoalsSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ledger.GoalsSummary(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.ledger.GoalProgress(r.Context(), UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleExport streams accounts or transactions as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)

	switch what := mux.Vars(r)["what"]; what {
	case "accounts":
		accts, err := s.ledger.ListAccounts(ctx, userID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeCSVHeaders(w, what)
		if err := export.WriteAccounts(w, accts); err != nil {
			s.logger.Warn("writing accounts export", zap.Error(err))
		}
	case "transactions":
		recs, err := s.ledger.ListTransactions(ctx, userID, store.TransactionFilter{AccountID: r.URL.Query().Get("account_id")})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeCSVHeaders(w, what)
		if err := export.WriteTransactions(w, recs); err != nil {
			s.logger.Warn("writing transactions export", zap.Error(err))
		}
	default:
		s.writeError(w, r, model.ValidationError{Field: "what", Message: "must be accounts or transactions"})
	}
}

func writeCSVHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
	w.WriteHeader(http.StatusOK)
}
