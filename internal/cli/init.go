// Package cli holds the start-up and shutdown plumbing shared by
// cmd/myfinance and cmd/myfinance-worker.
package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"myfinance/internal/config"
	"myfinance/internal/log"
)

// Task is one long-running part of a process. It must return when ctx is done.
type Task func(ctx context.Context) error

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from the configured level and
// format and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = strings.ToLower(cfg.LogFormat)
	lc.Component = component
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration, sets up logging and runs
// validate on the result. Returns the config or exits the process on
// validation failure.
func LoadAndValidateConfig(component string, validate func(*config.Config) error) (*config.Config, *log.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// Run starts every task and blocks until all of them returned. The first
// task error, SIGINT or SIGTERM cancels the context of the others. A clean
// signal-driven stop returns nil.
func Run(ctx context.Context, logger *log.Logger, tasks ...Task) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error { return task(gctx) })
	}

	go func() {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		}
	}()

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ServeHTTP runs srv until ctx is done, then shuts it down gracefully
// within timeout.
func ServeHTTP(srv *http.Server, timeout time.Duration, logger *log.Logger) Task {
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			logger.Info("HTTP server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			errCh <- nil
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown timeout reached", log.FieldError, err)
			return err
		}
		logger.Info("HTTP server stopped")
		return <-errCh
	}
}
