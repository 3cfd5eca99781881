package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/openshorts-hooks/internal/gallery"
	"github.com/maauso/openshorts-hooks/internal/hook"
	"github.com/maauso/openshorts-hooks/internal/job"
)

// Gallery paging.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            *job.Service
	publisher          *gallery.Publisher
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateHook only queues the job.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.Service, publisher *gallery.Publisher, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		publisher:          publisher,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	storage := "disabled"
	if h.publisher.Enabled() {
		storage = "configured"
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Storage: storage})
}

// ListClips handles GET /api/gallery/clips requests.
func (h *Handlers) ListClips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := intParam(q.Get("limit"), DefaultPageSize)
	if err != nil || limit < 1 || limit > MaxPageSize {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 100", "INVALID_LIMIT")
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer", "INVALID_OFFSET")
		return
	}
	refresh, _ := strconv.ParseBool(q.Get("refresh"))

	// One extra clip tells us whether another page exists.
	res := h.publisher.ListClips(r.Context(), gallery.ListOptions{
		Limit:        offset + limit + 1,
		ForceRefresh: refresh,
	})

	switch res.Status {
	case gallery.StatusCredentialsMissing:
		writeError(w, http.StatusServiceUnavailable, "clip storage is not configured", "STORAGE_NOT_CONFIGURED")
		return
	case gallery.StatusFailed:
		writeError(w, http.StatusBadGateway, "clip storage is unavailable", "STORAGE_UNAVAILABLE")
		return
	}

	clips := []gallery.Clip{}
	if offset < len(res.Clips) {
		clips = res.Clips[offset:]
	}
	hasMore := len(clips) > limit
	if hasMore {
		clips = clips[:limit]
	}

	writeJSON(w, http.StatusOK, ClipsResponse{Clips: clips, HasMore: hasMore})
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// CreateHook handles POST /api/hooks requests.
func (h *Handlers) CreateHook(w http.ResponseWriter, r *http.Request) {
	var req CreateHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	created, err := h.service.CreateJob(r.Context(), job.HookInput{
		SourceJobID: req.JobID,
		Clip:        req.Clip,
		Text:        req.Text,
		Position:    hook.ParsePosition(req.Position),
		Scale:       hook.ParseSize(req.Size).Scale(),
		Publish:     req.Publish,
	})
	switch {
	case errors.Is(err, job.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_NAME")
		return
	case errors.Is(err, job.ErrClipNotFound):
		writeError(w, http.StatusNotFound, "clip not found", "CLIP_NOT_FOUND")
		return
	case errors.Is(err, job.ErrPublishingDisabled):
		writeError(w, http.StatusServiceUnavailable, "clip storage is not configured", "STORAGE_NOT_CONFIGURED")
		return
	case err != nil:
		h.logger.Error("failed to create hook job",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create hook job", "JOB_CREATION_FAILED")
		return
	}

	// Processing outlives the request.
	if h.enableAsyncProcess {
		go func(ctx context.Context, jobID string) {
			if err := h.service.Process(ctx, jobID); err != nil {
				h.logger.Error("background processing failed",
					slog.String("job_id", jobID),
					slog.String("error", err.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), created.ID)
	}

	writeJSON(w, http.StatusAccepted, CreateHookResponse{
		ID:     created.ID,
		Status: string(created.Status),
	})
}

// GetHook handles GET /api/hooks/{id} requests.
func (h *Handlers) GetHook(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	found, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		h.writeJobError(w, jobID, err)
		return
	}

	writeJSON(w, http.StatusOK, toHookJobResponse(found))
}

// ListHooks handles GET /api/hooks requests.
func (h *Handlers) ListHooks(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_FETCH_FAILED")
		return
	}

	resp := HookJobListResponse{Jobs: make([]HookJobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, toHookJobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CancelHook handles POST /api/hooks/{id}/cancel requests.
func (h *Handlers) CancelHook(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	cancelled, err := h.service.CancelJob(r.Context(), jobID)
	if errors.Is(err, job.ErrInvalidTransition) {
		writeError(w, http.StatusConflict, "job has already started", "JOB_NOT_CANCELLABLE")
		return
	}
	if err != nil {
		h.writeJobError(w, jobID, err)
		return
	}

	writeJSON(w, http.StatusOK, toHookJobResponse(cancelled))
}

// PublishJob handles POST /api/jobs/{id}/publish requests.
func (h *Handlers) PublishJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	report, err := h.service.PublishArtifacts(r.Context(), jobID)
	switch {
	case errors.Is(err, job.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_NAME")
		return
	case errors.Is(err, job.ErrPublishingDisabled):
		writeError(w, http.StatusServiceUnavailable, "clip storage is not configured", "STORAGE_NOT_CONFIGURED")
		return
	case err != nil:
		h.logger.Error("failed to publish job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to publish job", "PUBLISH_FAILED")
		return
	}

	resp := PublishResponse{Uploaded: report.Uploaded, Failed: report.Failed}
	if resp.Uploaded == nil {
		resp.Uploaded = []string{}
	}
	if resp.Failed == nil {
		resp.Failed = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) writeJobError(w http.ResponseWriter, jobID string, err error) {
	if errors.Is(err, job.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
		return
	}
	h.logger.Error("failed to get job",
		slog.String("job_id", jobID),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
}

func toHookJobResponse(j *job.Job) HookJobResponse {
	resp := HookJobResponse{
		ID:        j.ID,
		Status:    string(j.Status),
		JobID:     j.SourceJobID,
		Clip:      j.Clip,
		Position:  string(j.Position),
		Scale:     j.Scale,
		Publish:   j.Publish,
		OutputKey: j.OutputKey,
		OverlayX:  j.OverlayX,
		OverlayY:  j.OverlayY,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
	}
	if j.Status == job.StatusCompleted {
		resp.OutputPath = j.OutputPath
	}
	if !j.CompletedAt.IsZero() {
		completed := j.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
