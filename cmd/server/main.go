package main

import (
	"bus-arrival-service/internal/api"
	"bus-arrival-service/internal/app"
	"bus-arrival-service/internal/config"
	"bus-arrival-service/internal/platform/metrics"
	"bus-arrival-service/internal/platform/obs"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

var version = "dev"

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config failed", "err", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	svc, err := app.New(ctx, cfg, logger, m)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}

	router := api.NewRouter(api.Deps{
		Realtime:   svc.Aggregator,
		Lines:      svc.Aggregator,
		Timetables: svc.Timetables,
		FrontLimit: cfg.FrontLimit,
		Version:    version,
		Location:   cfg.Location,
		Metrics:    m,
		Logger:     logger,
	})

	// Timeouts leave room for a cold resolve plus per-line fetches with retries.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "provider", cfg.Provider, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
