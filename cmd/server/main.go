package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	webAdapter "sample-logistics/internal/adapters/web"
	"sample-logistics/internal/app"
	"sample-logistics/internal/config"
	"sample-logistics/internal/core"
	"sample-logistics/internal/db"
	"sample-logistics/internal/events"
	"sample-logistics/internal/logging"
	"sample-logistics/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; fall back to a production one to report the failure.
		logging.New(false).Fatal("config", zap.Error(err))
	}
	log := logging.New(cfg.IsDev())
	defer func() { _ = log.Sync() }()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required to run the server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
			log.Fatal("migrations", zap.Error(err))
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	publisher, err := events.NewPublisher(cfg)
	if err != nil {
		log.Fatal("events", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("closing event publisher", zap.Error(err))
		}
	}()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	ledger := core.NewLedger()
	svc := app.NewAppService(
		core.NewDispatchService(pool, ledger),
		core.NewSampleService(pool, ledger),
		core.NewDirectoryService(pool),
		core.NewStockService(pool),
		publisher,
		m,
		log,
	)

	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
		Metrics:        m,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("events_backend", cfg.EventsBackend),
			zap.Bool("metrics", m != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown", zap.Error(err))
	}
}
