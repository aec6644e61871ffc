package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/apt777/finance-app/internal/config"
	"github.com/apt777/finance-app/internal/currency"
	"github.com/apt777/finance-app/internal/ledger"
	"github.com/apt777/finance-app/internal/logging"
	"github.com/apt777/finance-app/internal/store"
)

// app holds what every command that touches data needs.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	store  store.Store
}

func openApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if cfg.Currency.Base, err = currency.Normalize(cfg.Currency.Base); err != nil {
		return nil, fmt.Errorf("invalid config: currency.base: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("store opened", zap.String("driver", cfg.Database.Driver))

	return &app{cfg: cfg, logger: logger, store: st}, nil
}

func (a *app) ledger(opts ...ledger.Option) *ledger.Service {
	opts = append([]ledger.Option{ledger.WithLogger(a.logger)}, opts...)
	return ledger.NewService(a.store, a.cfg.Currency.Base, opts...)
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}
