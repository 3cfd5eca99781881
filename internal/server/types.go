// Package server provides the HTTP API used by the dashboard: gallery
// listing, hook jobs and job publishing. It includes handlers, middleware,
// routes, and DTOs separated from domain types.
package server

import (
	"time"

	"github.com/maauso/openshorts-hooks/internal/gallery"
)

// CreateHookRequest is the HTTP request body for burning a hook onto a clip.
type CreateHookRequest struct {
	// JobID is the clipping job that produced the clip.
	JobID string `json:"job_id" validate:"required,max=128,excludesall=/\\"`
	// Clip is the clip file name inside the job directory.
	Clip string `json:"clip" validate:"required,max=255,excludesall=/\\"`
	// Text is the hook text. Newlines start new lines.
	Text string `json:"text" validate:"required,max=500"`
	// Position is top, center or bottom. Defaults to top.
	Position string `json:"position" validate:"omitempty,oneof=top center bottom"`
	// Size is S, M or L. Defaults to M.
	Size string `json:"size" validate:"omitempty,oneof=S M L"`
	// Publish uploads the hooked clip to the clip bucket.
	Publish bool `json:"publish"`
}

// CreateHookResponse is the HTTP response after queueing a hook job.
type CreateHookResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HookJobResponse is the HTTP response for a hook job.
type HookJobResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	JobID       string     `json:"job_id"`
	Clip        string     `json:"clip"`
	Position    string     `json:"position"`
	Scale       float64    `json:"scale"`
	Publish     bool       `json:"publish"`
	OutputPath  string     `json:"output_path,omitempty"`
	OutputKey   string     `json:"output_key,omitempty"`
	OverlayX    int        `json:"overlay_x"`
	OverlayY    int        `json:"overlay_y"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// HookJobListResponse lists hook jobs, newest first.
type HookJobListResponse struct {
	Jobs []HookJobResponse `json:"jobs"`
}

// ClipsResponse is one page of the gallery.
type ClipsResponse struct {
	Clips   []gallery.Clip `json:"clips"`
	HasMore bool           `json:"has_more"`
}

// PublishResponse reports a bulk artifact upload.
type PublishResponse struct {
	Uploaded []string `json:"uploaded"`
	Failed   []string `json:"failed"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	// Storage is "configured" or "disabled".
	Storage string `json:"storage"`
}
