// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/audit"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/config"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/database"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/handler"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/obs"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/repository"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/service"
)

const (
	serviceName = "live-ticket-reserve"
	version     = "0.1.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	questions, err := config.LoadSurveyQuestions(cfg.SurveyQuestionsFile)
	if err != nil {
		return err
	}

	// ── 1. Tracing ───────────────────────────────────────────────────────
	shutdownTracer, err := obs.InitTracer(ctx, serviceName, version, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	// ── 2. Storage and audit sinks ───────────────────────────────────────
	sinks := []audit.Sink{audit.LogSink{Logger: logger}}
	var store repository.Store
	switch cfg.Store {
	case config.StoreMemory:
		store = repository.NewMemoryStore()
		logger.Warn("using in-memory store; data is lost on exit")
	default:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		logger.Info("connected to PostgreSQL", "host", cfg.Database.Host, "db", cfg.Database.DBName)

		store = repository.NewPostgresStore(pool,
			repository.WithRetries(cfg.TxMaxRetries, cfg.TxRetryBackoff),
			repository.WithLogger(logger),
		)
		sinks = append(sinks, audit.NewPostgresSink(pool))
	}
	if cfg.AuditRabbitURL != "" {
		pub, err := audit.NewAMQPSink(cfg.AuditRabbitURL, cfg.AuditExchange)
		if err != nil {
			return fmt.Errorf("audit publisher: %w", err)
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	}
	recorder := audit.NewRecorder(logger, sinks...)

	// ── 3. Wire up layers ────────────────────────────────────────────────
	opts := []service.Option{service.WithLocation(loc)}
	eventSvc := service.NewEventService(store, logger, opts...)
	reservationSvc := service.NewReservationService(store, recorder, logger, opts...)
	accountSvc := service.NewAccountService(store, recorder, logger, reservationSvc, opts...)
	surveySvc := service.NewSurveyService(store, recorder, logger, questions, opts...)
	h := handler.New(eventSvc, reservationSvc, accountSvc, surveySvc, logger)

	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN not set, admin API disabled")
	}

	// ── 4. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(h, logger, handler.WithAdminToken(cfg.AdminToken)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
