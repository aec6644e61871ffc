package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apt777/finance-app/internal/api"
	"github.com/apt777/finance-app/internal/importer"
	"github.com/apt777/finance-app/internal/ledger"
	"github.com/apt777/finance-app/internal/metrics"
	"github.com/apt777/finance-app/internal/notify"
	"github.com/apt777/finance-app/internal/store"
)

func newServeCommand(cfgPath *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *cfgPath, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create the schema before serving")
	return cmd
}

func runServe(ctx context.Context, cfgPath string, migrate bool) error {
	a, err := openApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger
	undo := zap.ReplaceGlobals(logger.Logger)
	defer undo()

	if pg, ok := a.store.(*store.Postgres); ok && migrate {
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	if len(a.cfg.Auth.Tokens) == 0 {
		logger.Warn("no auth tokens configured; every API request will be rejected")
	}

	var collector metrics.Collector = metrics.NoOpCollector{}
	var exporter http.Handler
	if a.cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		pc := metrics.NewPrometheusCollector(a.cfg.Metrics.Namespace)
		if err := pc.Register(reg); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		collector = pc
		exporter = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	hub := notify.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	svc := a.ledger(ledger.WithMetrics(collector), ledger.WithPublisher(hub))
	opts := api.Options{
		Ledger:    svc,
		Auth:      api.NewTokenAuth(a.cfg.Auth.Tokens),
		Live:      hub,
		Metrics:   collector,
		Exporter:  exporter,
		Importers: importer.DefaultRegistry(),
		Logger:    logger,
		Server:    a.cfg.Server,
	}
	srv := api.NewServer(opts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutting down: %w", err)
	}
	stopHub()
	logger.Info("server stopped")
	return nil
}
