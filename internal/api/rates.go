package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/ledger"
	"github.com/apt777/finance-app/internal/model"
)

type rateRequest struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Rate         decimal.Decimal `json:"rate"`
	Source       string          `json:"source"`
}

func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.ledger.ListRates(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rates == nil {
		rates = []model.ExchangeRate{}
	}
	writeJSON(w, http.StatusOK, rates)
}

func (s *Server) handleUpsertRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rate, err := s.ledger.UpsertRate(r.Context(), UserID(r.Context()), ledger.SetRateParams{
		From:   req.FromCurrency,
		To:     req.ToCurrency,
		Rate:   req.Rate,
		Source: req.Source,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (s *Server) handleDeleteRate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.ledger.DeleteRate(r.Context(), UserID(r.Context()), vars["from"], vars["to"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := parseDecimal("amount", q.Get("amount"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to := q.Get("to")
	if to == "" {
		to = s.ledger.BaseCurrency()
	}
	c, err := s.ledger.Convert(r.Context(), UserID(r.Context()), amount, q.Get("from"), to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
