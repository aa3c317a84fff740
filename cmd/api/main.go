package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nuworks/agentia/internal/api"
	"github.com/nuworks/agentia/internal/audit"
	"github.com/nuworks/agentia/internal/config"
	"github.com/nuworks/agentia/internal/database"
	"github.com/nuworks/agentia/internal/llm"
	"github.com/nuworks/agentia/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Database connection (optional: order history is disabled without it)
	deps := api.Deps{}
	var orderLog pipeline.OrderLogger
	db, err := database.NewPool(ctx, cfg.Database)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		slog.Info("DATABASE_URL not set, order logging disabled")
	case err != nil:
		slog.Warn("database unavailable, running without DB", "error", err)
	default:
		defer db.Close()

		if err := database.RunMigrations(ctx, db, database.MigrationSource(cfg.Database.MigrationsPath)); err != nil {
			slog.Warn("migrations failed", "error", err)
		}
		auditSvc := audit.NewService(db)
		orderLog = auditSvc
		deps.Audit = auditSvc
		deps.DB = db
	}

	gw := llm.NewGateway(cfg.LLM)
	svc, err := pipeline.FromConfig(cfg, gw, orderLog)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	if err := svc.EnsureStorage(ctx); err != nil {
		slog.Warn("order bucket check failed", "bucket", cfg.Storage.Bucket, "error", err)
	}

	deps.Pipeline = svc
	deps.Gateway = gw
	router := api.NewRouter(cfg, deps)
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server",
			"addr", cfg.Addr(),
			"provider", cfg.LLM.DefaultProvider,
			"storage", cfg.Storage.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
