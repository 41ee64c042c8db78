// Command server runs the Fusion Futures API.
//
// Configuration is loaded from a YAML file (see pkg/config for discovery
// order) with FUSION_* environment variable overrides.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/fusionfutures/api/pkg/app"
	"github.com/fusionfutures/api/pkg/config"
	"github.com/fusionfutures/api/pkg/debug"
	"github.com/fusionfutures/api/pkg/events"
	"github.com/fusionfutures/api/pkg/ratelimit"
	"github.com/fusionfutures/api/pkg/storage"
	"github.com/fusionfutures/api/pkg/storage/memory"
	"github.com/fusionfutures/api/pkg/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	level := debug.Init(cfg.Observability.Logging.Debug, cfg.Observability.Logging.Level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage backend.
	var store storage.Store
	switch cfg.Storage.Type {
	case "postgres":
		store, err = postgres.New(ctx, postgres.Config{
			DSN:             cfg.Storage.Postgres.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			MaxConnLifetime: cfg.Storage.Postgres.MaxConnLifetime,
			MigrateOnStart:  cfg.Storage.Postgres.MigrateOnStart,
		})
		if err != nil {
			return fmt.Errorf("creating postgres store: %w", err)
		}
	default:
		store = memory.New()
	}
	defer store.Close()
	logger.Info("storage ready", "type", cfg.Storage.Type)

	// Rate limiter backend.
	var limiter ratelimit.Limiter
	switch cfg.RateLimit.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.Redis.Addr,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		defer client.Close()
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit.RequestsPerMinute, logger)
	default:
		limiter = ratelimit.NewInProcessLimiter(cfg.RateLimit.RequestsPerMinute)
	}

	bus := events.New(logger, 0, 0)
	defer bus.Close()

	a, err := app.New(cfg, logger, store, limiter, bus)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
