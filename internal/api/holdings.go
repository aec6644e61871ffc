package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/ledger"
	"github.com/apt777/finance-app/internal/model"
)

type holdingRequest struct {
	AccountID    string          `json:"account_id"`
	Symbol       string          `json:"symbol"`
	Shares       decimal.Decimal `json:"shares"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Currency     string          `json:"currency"`
}

func (req holdingRequest) params() ledger.HoldingParams {
	return ledger.HoldingParams{
		AccountID:    req.AccountID,
		Symbol:       req.Symbol,
		Shares:       req.Shares,
		CostBasis:    req.CostBasis,
		CurrentPrice: req.CurrentPrice,
		Currency:     req.Currency,
	}
}

func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	hs, err := s.ledger.ListHoldings(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if hs == nil {
		hs = []model.Holding{}
	}
	writeJSON(w, http.StatusOK, hs)
}

func (s *Server) handleCreateHolding(w http.ResponseWriter, r *http.Request) {
	var req holdingRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	h, err := s.ledger.CreateHolding(r.Context(), UserID(r.Context()), req.params())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleGetHolding(w http.ResponseWriter, r *http.Request) {
	h, err := s.ledger.GetHolding(r.Context(), UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleUpdateHolding(w http.ResponseWriter, r *http.Request) {
	var req holdingRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	h, err := s.ledger.UpdateHolding(r.Context(), UserID(r.Context()), mux.Vars(r)["id"], req.params())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteHolding(r.Context(), UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type goalRequest struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    string          `json:"target_date"`
}

func (req goalRequest) params() (ledger.GoalParams, error) {
	p := ledger.GoalParams{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
	}
	if req.TargetDate != "" {
		d, err := parseDate("target_date", req.TargetDate)
		if err != nil {
			return p, err
		}
		p.TargetDate = &d
	}
	return p, nil
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	gs, err := s.ledger.ListGoals(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if gs == nil {
		gs = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, gs)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	s.saveGoal(w, r, "")
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	s.saveGoal(w, r, mux.Vars(r)["id"])
}

func (s *Server) saveGoal(w http.ResponseWriter, r *http.Request, id string) {
	var req goalRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	params, err := req.params()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var g model.Goal
	status := http.StatusOK
	if id == "" {
		g, err = s.ledger.CreateGoal(r.Context(), UserID(r.Context()), params)
		status = http.StatusCreated
	} else {
		g, err = s.ledger.UpdateGoal(r.Context(), UserID(r.Context()), id, params)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, g)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.ledger.GetGoal(r.Context(), UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteGoal(r.Context(), UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
