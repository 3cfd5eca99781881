// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidPort is returned when PORT is outside the TCP port range.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
	// ErrInvalidCacheTTL is returned when CLIPS_CACHE_TTL is negative.
	ErrInvalidCacheTTL = errors.New("config: CLIPS_CACHE_TTL must not be negative")
	// ErrInvalidSignedURLTTL is returned when SIGNED_URL_TTL is not positive.
	ErrInvalidSignedURLTTL = errors.New("config: SIGNED_URL_TTL must be positive")
	// ErrInvalidMaxRenders is returned when MAX_CONCURRENT_RENDERS is below 1.
	ErrInvalidMaxRenders = errors.New("config: MAX_CONCURRENT_RENDERS must be at least 1")
	// ErrInvalidJobRetention is returned when JOB_RETENTION is not positive.
	ErrInvalidJobRetention = errors.New("config: JOB_RETENTION must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8080" json:"port"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Local filesystem settings
	TempDir   string `env:"TEMP_DIR, default=/tmp/openshorts" json:"temp_dir"`
	OutputDir string `env:"OUTPUT_DIR, default=output" json:"output_dir"`

	// Hook rendering settings
	FontDir     string `env:"FONT_DIR, default=fonts" json:"font_dir"`
	FontURL     string `env:"FONT_URL, default=https://github.com/googlefonts/noto-fonts/raw/main/hinted/ttf/NotoSerif/NotoSerif-Bold.ttf" json:"font_url"`
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Hook job settings
	MaxConcurrentRenders int           `env:"MAX_CONCURRENT_RENDERS, default=2" json:"max_concurrent_renders"`
	JobRetention         time.Duration `env:"JOB_RETENTION, default=24h" json:"job_retention"`

	// S3 settings
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON
	AWSRegion          string `env:"AWS_REGION, default=us-east-1" json:"aws_region"`
	S3Bucket           string `env:"AWS_S3_BUCKET, default=openshorts.app-clips" json:"s3_bucket"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`

	// Gallery settings
	ClipsCacheTTL time.Duration `env:"CLIPS_CACHE_TTL, default=5m" json:"clips_cache_ttl"`
	SignedURLTTL  time.Duration `env:"SIGNED_URL_TTL, default=2h" json:"signed_url_ttl"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if both AWS credentials are provided.
// The region and bucket always carry defaults, so credentials decide.
func (c *Config) S3Enabled() bool {
	return c.AWSAccessKeyID != "" && c.AWSSecretAccessKey != ""
}

// Load reads a .env file when present and then populates the configuration
// from environment variables using go-envconfig.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	return LoadFromLookuper(envconfig.OsLookuper())
}

// LoadFromLookuper populates the configuration from the given lookuper.
func LoadFromLookuper(l envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configured values are usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.ClipsCacheTTL < 0 {
		return ErrInvalidCacheTTL
	}
	if c.SignedURLTTL <= 0 {
		return ErrInvalidSignedURLTTL
	}
	if c.MaxConcurrentRenders < 1 {
		return ErrInvalidMaxRenders
	}
	if c.JobRetention <= 0 {
		return ErrInvalidJobRetention
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, TempDir: %s, OutputDir: %s, FontDir: %s, AWSRegion: %s, S3Bucket: %s, S3Enabled: %t, ClipsCacheTTL: %s, SignedURLTTL: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.TempDir,
		c.OutputDir,
		c.FontDir,
		c.AWSRegion,
		c.S3Bucket,
		c.S3Enabled(),
		c.ClipsCacheTTL,
		c.SignedURLTTL,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
