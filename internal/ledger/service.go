// Package ledger is the application service of finapp. It loads the
// accounts an operation touches inside one storage transaction, runs the
// balance engine against them and persists the result atomically.
package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apt777/finance-app/internal/balance"
	"github.com/apt777/finance-app/internal/logging"
	"github.com/apt777/finance-app/internal/metrics"
	"github.com/apt777/finance-app/internal/model"
	"github.com/apt777/finance-app/internal/store"
)

// Publisher delivers events to a user's live clients.
type Publisher interface {
	Publish(userID string, payload any)
}

// Service provides the finance operations of one deployment.
type Service struct {
	store     store.Store
	logger    *logging.Logger
	metrics   metrics.Collector
	publisher Publisher
	base      string
	now       func() time.Time
	newID     func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l.Named("ledger") }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

// WithPublisher sets where balance events are sent after commit.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the random UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a ledger Service. baseCurrency is the currency
// aggregated totals are reported in.
func NewService(st store.Store, baseCurrency string, opts ...Option) *Service {
	s := &Service{
		store:     st,
		logger:    logging.NewNoOpLogger(),
		metrics:   metrics.NoOpCollector{},
		publisher: discard{},
		base:      baseCurrency,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseCurrency returns the reporting currency.
func (s *Service) BaseCurrency() string {
	return s.base
}

type discard struct{}

func (discard) Publish(string, any) {}

// lockAccounts loads the accounts in id order so that concurrent units of
// work touching the same accounts cannot deadlock.
func lockAccounts(ctx context.Context, tx store.Tx, userID string, ids []string) ([]model.Account, error) {
	sorted := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	accounts := make([]model.Account, 0, len(sorted))
	for _, id := range sorted {
		a, err := tx.GetAccount(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// persist writes every balance change of uow.
func persist(ctx context.Context, tx store.Tx, userID string, uow balance.UnitOfWork) error {
	for _, c := range uow.Changes {
		if err := tx.SetBalance(ctx, userID, c.AccountID, c.After); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) observe(kind string, start time.Time, err error) {
	s.metrics.RecordMutation(kind, model.Classify(err), time.Since(start))
	if err == nil {
		return
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrInvalidOperation) || errors.Is(err, model.ErrInvalidAmount) {
		s.logger.Debug("mutation rejected", zap.String("kind", kind), zap.Error(err))
		return
	}
	s.logger.Error("mutation failed", zap.String("kind", kind), zap.Error(err))
}

func (s *Service) rateMiss(from, to string) {
	s.metrics.RecordRateMiss(from, to)
	s.logger.Warn("exchange rate not found, using amount unchanged",
		zap.String("from", from), zap.String("to", to))
}

// today returns the current date at midnight UTC.
func (s *Service) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
