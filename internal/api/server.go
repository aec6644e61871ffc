// Package api exposes the ledger over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/apt777/finance-app/internal/config"
	"github.com/apt777/finance-app/internal/importer"
	"github.com/apt777/finance-app/internal/ledger"
	"github.com/apt777/finance-app/internal/logging"
	"github.com/apt777/finance-app/internal/metrics"
)

// LiveUpdates attaches a websocket connection to a user.
type LiveUpdates interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string)
}

// Options configures a Server. Ledger and Auth are required.
type Options struct {
	Ledger    *ledger.Service
	Auth      Authenticator
	Live      LiveUpdates // nil disables /ws
	Metrics   metrics.Collector
	Exporter  http.Handler // served at /metrics; nil disables it
	Importers *importer.Registry
	Logger    *logging.Logger
	Server    config.ServerConfig
}

// Server is the finapp HTTP API.
type Server struct {
	ledger    *ledger.Service
	auth      Authenticator
	live      LiveUpdates
	metrics   metrics.Collector
	importers *importer.Registry
	logger    *logging.Logger
	router    *mux.Router
	server    *http.Server
}

// NewServer builds the router and the underlying http.Server.
func NewServer(opts Options) *Server {
	s := &Server{
		ledger:    opts.Ledger,
		auth:      opts.Auth,
		live:      opts.Live,
		metrics:   opts.Metrics,
		importers: opts.Importers,
		logger:    opts.Logger,
	}
	if s.metrics == nil {
		s.metrics = metrics.NoOpCollector{}
	}
	if s.importers == nil {
		s.importers = importer.DefaultRegistry()
	}
	if s.logger == nil {
		s.logger = logging.NewNoOpLogger()
	}
	s.logger = s.logger.Named("api")

	r := mux.NewRouter()
	r.Use(s.metricsMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if opts.Exporter != nil {
		r.Handle("/metrics", opts.Exporter).Methods(http.MethodGet)
	}
	if s.live != nil {
		r.Handle("/ws", s.authenticate(http.HandlerFunc(s.handleWS))).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", s.handleUpdateAccount).Methods(http.MethodPatch)
	api.HandleFunc("/accounts/{id}", s.handleDeleteAccount).Methods(http.MethodDelete)
	api.HandleFunc("/accounts/{id}/import", s.handleImport).Methods(http.MethodPost)

	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.handleGetTransaction).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)
	api.HandleFunc("/transfers", s.handleCreateTransfer).Methods(http.MethodPost)

	api.HandleFunc("/exchange-rates", s.handleListRates).Methods(http.MethodGet)
	api.HandleFunc("/exchange-rates", s.handleUpsertRate).Methods(http.MethodPost, http.MethodPut)
	api.HandleFunc("/exchange-rates/{from}/{to}", s.handleDeleteRate).Methods(http.MethodDelete)
	api.HandleFunc("/convert", s.handleConvert).Methods(http.MethodGet)

	api.HandleFunc("/holdings", s.handleListHoldings).Methods(http.MethodGet)
	api.HandleFunc("/holdings", s.handleCreateHolding).Methods(http.MethodPost)
	api.HandleFunc("/holdings/{id}", s.handleGetHolding).Methods(http.MethodGet)
	api.HandleFunc("/holdings/{id}", s.handleUpdateHolding).Methods(http.MethodPut)
	api.HandleFunc("/holdings/{id}", s.handleDeleteHolding).Methods(http.MethodDelete)

	api.HandleFunc("/goals", s.handleListGoals).Methods(http.MethodGet)
	api.HandleFunc("/goals", s.handleCreateGoal).Methods(http.MethodPost)
	api.HandleFunc("/goals/summary", s.handleGoalsSummary).Methods(http.MethodGet)
	api.HandleFunc("/goals/{id}", s.handleGetGoal).Methods(http.MethodGet)
	api.HandleFunc("/goals/{id}", s.handleUpdateGoal).Methods(http.MethodPut)
	api.HandleFunc("/goals/{id}", s.handleDeleteGoal).Methods(http.MethodDelete)
	api.HandleFunc("/goals/{id}/progress", s.handleGoalProgress).Methods(http.MethodGet)

	api.HandleFunc("/portfolio", s.handlePortfolio).Methods(http.MethodGet)
	api.HandleFunc("/net-worth", s.handleNetWorth).Methods(http.MethodGet)
	api.HandleFunc("/export/{what}", s.handleExport).Methods(http.MethodGet)

	s.router = r
	s.server = &http.Server{
		Addr:         opts.Server.Address,
		Handler:      r,
		ReadTimeout:  opts.Server.ReadTimeout,
		WriteTimeout: opts.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", zap.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"base_currency": s.ledger.BaseCurrency(),
		"timestamp":     time.Now().Unix(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.live.ServeWS(w, r, UserID(r.Context()))
}
