// Package bootstrap provides dependency initialization for the hooks API.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/openshorts-hooks/internal/config"
	"github.com/maauso/openshorts-hooks/internal/gallery"
	"github.com/maauso/openshorts-hooks/internal/hook"
	"github.com/maauso/openshorts-hooks/internal/job"
	"github.com/maauso/openshorts-hooks/internal/media"
	"github.com/maauso/openshorts-hooks/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	HookService *job.Service
	Publisher   *gallery.Publisher
}

// NewDependencies creates and initializes all dependencies for the application.
// A missing font or missing S3 credentials degrade the service instead of
// failing startup.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	temp, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured", slog.String("temp_dir", temp.TempDir()))

	fonts := hook.NewFontLoader(cfg.FontDir, cfg.FontURL, hook.WithFontLogger(logger))
	// Ensure logs its own failure; Face falls back to the embedded font.
	_ = fonts.Ensure(ctx)

	processor := media.NewFFmpegProcessor(cfg.FFmpegPath, cfg.FFprobePath)
	compositor := hook.NewCompositor(fonts, logger)
	overlayer := hook.NewOverlayer(compositor, processor, temp, logger)

	store, err := initObjectStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	publisher := gallery.NewPublisher(store,
		gallery.WithBucket(cfg.S3Bucket),
		gallery.WithCacheTTL(cfg.ClipsCacheTTL),
		gallery.WithURLExpiry(cfg.SignedURLTTL),
		gallery.WithLogger(logger),
	)

	repo := job.NewMemoryRepository()
	svc := job.NewService(repo, overlayer, publisher, cfg.OutputDir, logger)
	svc.SetMaxConcurrentRenders(cfg.MaxConcurrentRenders)

	return &Dependencies{
		HookService: svc,
		Publisher:   publisher,
	}, nil
}

// initObjectStore returns the S3 store, or nil when credentials are absent.
func initObjectStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ObjectStore, error) {
	if !cfg.S3Enabled() {
		logger.Warn("S3 credentials not configured, gallery and publishing disabled")
		return nil, nil
	}

	s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 storage: %w", err)
	}
	logger.Info("S3 storage configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", s3Store.Region()),
	)
	return s3Store, nil
}
