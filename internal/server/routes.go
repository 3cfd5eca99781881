package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("GET /api/gallery/clips", h.ListClips)

	mux.HandleFunc("POST /api/hooks", h.CreateHook)
	mux.HandleFunc("GET /api/hooks", h.ListHooks)
	mux.HandleFunc("GET /api/hooks/{id}", h.GetHook)
	mux.HandleFunc("POST /api/hooks/{id}/cancel", h.CancelHook)

	mux.HandleFunc("POST /api/jobs/{id}/publish", h.PublishJob)

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
