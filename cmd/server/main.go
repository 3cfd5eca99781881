// Package main provides the entry point for the hooks API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maauso/openshorts-hooks/internal/bootstrap"
	"github.com/maauso/openshorts-hooks/internal/config"
	"github.com/maauso/openshorts-hooks/internal/job"
	"github.com/maauso/openshorts-hooks/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from .env and the environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting hooks API",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("output_dir", cfg.OutputDir),
		slog.String("font_dir", cfg.FontDir),
		slog.Int("max_concurrent_renders", cfg.MaxConcurrentRenders),
		slog.Duration("job_retention", cfg.JobRetention),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)

	// The font download honours the signal context so startup can be aborted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	go pruneJobs(ctx, deps.HookService, cfg.JobRetention, logger)

	handlers := server.NewHandlers(deps.HookService, deps.Publisher, logger)
	router := server.NewRouter(handlers, logger, server.Config{AllowedOrigins: cfg.AllowedOrigins})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Gallery scans presign many URLs
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		return err
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// pruneInterval is how often finished jobs are checked against retention.
const pruneInterval = 10 * time.Minute

// pruneJobs drops expired finished jobs until ctx is done.
func pruneJobs(ctx context.Context, svc *job.Service, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.PruneFinished(ctx, retention); err != nil {
				logger.Warn("failed to prune jobs", slog.String("error", err.Error()))
			}
		}
	}
}
