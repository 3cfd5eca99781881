package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maauso/openshorts-hooks/internal/gallery"
	"github.com/maauso/openshorts-hooks/internal/hook"
)

// Service errors.
var (
	// ErrInvalidName is returned for job or clip names that are not a single
	// path segment.
	ErrInvalidName = errors.New("invalid job or clip name")
	// ErrClipNotFound is returned when the clip does not exist on disk.
	ErrClipNotFound = errors.New("clip not found")
	// ErrPublishingDisabled is returned when publishing is requested without
	// storage credentials.
	ErrPublishingDisabled = errors.New("publishing is not configured")
)

// HookSuffix is appended to the clip's base name for the hooked output.
const HookSuffix = "_hook"

// Overlayer burns a hook onto a clip.
type Overlayer interface {
	AddHook(ctx context.Context, req hook.OverlayRequest) (hook.Placement, error)
}

// Publisher uploads files to the clip bucket.
type Publisher interface {
	Enabled() bool
	Upload(ctx context.Context, localPath, bucket, key string) error
	UploadJobArtifacts(ctx context.Context, dir, jobID string) (gallery.UploadReport, error)
}

// HookInput is a request to burn a hook onto a generated clip.
type HookInput struct {
	// SourceJobID names the directory under the output root holding the clip.
	SourceJobID string
	// Clip is the clip file name.
	Clip     string
	Text     string
	Position hook.Position
	// Scale multiplies the base font size. Zero means 1.0.
	Scale   float64
	Publish bool
}

// Service creates and runs hook jobs against clips under an output root.
type Service struct {
	repo      Repository
	overlayer Overlayer
	publisher Publisher
	outputDir string
	logger    *slog.Logger
	// renderSlots bounds concurrent ffmpeg runs.
	renderSlots chan struct{}
}

// DefaultMaxConcurrentRenders is the default number of parallel ffmpeg runs.
const DefaultMaxConcurrentRenders = 2

// NewService creates a new Service.
func NewService(repo Repository, overlayer Overlayer, publisher Publisher, outputDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		overlayer:   overlayer,
		publisher:   publisher,
		outputDir:   outputDir,
		logger:      logger,
		renderSlots: make(chan struct{}, DefaultMaxConcurrentRenders),
	}
}

// SetMaxConcurrentRenders configures how many jobs may render at once.
// It must be called before any job is processed. Non-positive values are
// ignored.
func (s *Service) SetMaxConcurrentRenders(n int) {
	if n > 0 {
		s.renderSlots = make(chan struct{}, n)
	}
}

// validName reports whether name is a single, non-special path segment.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// hookedName returns the output file name for clip.
func hookedName(clip string) string {
	return strings.TrimSuffix(clip, filepath.Ext(clip)) + HookSuffix + ".mp4"
}

// CreateJob validates input and stores a queued job.
func (s *Service) CreateJob(ctx context.Context, input HookInput) (*Job, error) {
	if !validName(input.SourceJobID) || !validName(input.Clip) {
		return nil, ErrInvalidName
	}
	if input.Publish && (s.publisher == nil || !s.publisher.Enabled()) {
		return nil, ErrPublishingDisabled
	}

	dir := filepath.Join(s.outputDir, input.SourceJobID)
	inputPath := filepath.Join(dir, input.Clip)
	if _, err := os.Stat(inputPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrClipNotFound, input.SourceJobID, input.Clip)
		}
		return nil, fmt.Errorf("stat clip: %w", err)
	}

	job := New()
	job.SourceJobID = input.SourceJobID
	job.Clip = input.Clip
	job.Text = input.Text
	job.Position = input.Position
	if job.Position == "" {
		job.Position = hook.PositionTop
	}
	if input.Scale > 0 {
		job.Scale = input.Scale
	}
	job.Publish = input.Publish
	job.InputPath = inputPath
	job.OutputPath = filepath.Join(dir, hookedName(input.Clip))

	s.logger.Info("creating hook job",
		slog.String("job_id", job.ID),
		slog.String("source_job_id", job.SourceJobID),
		slog.String("clip", job.Clip),
		slog.String("position", string(job.Position)),
		slog.Float64("scale", job.Scale),
		slog.Bool("publish", job.Publish),
	)

	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return job, nil
}

// GetJob retrieves a job by ID.
func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns all jobs, newest first.
func (s *Service) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// CancelJob cancels a job that has not started yet.
func (s *Service) CancelJob(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.Update(ctx, id, func(j *Job) error {
		return j.Cancel()
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("hook job cancelled", slog.String("job_id", id))
	return job, nil
}

// Process renders and burns the hook for a queued job, then publishes the
// result if requested. Failures are recorded on the job and returned.
func (s *Service) Process(ctx context.Context, id string) error {
	select {
	case s.renderSlots <- struct{}{}:
		defer func() { <-s.renderSlots }()
	case <-ctx.Done():
		return ctx.Err()
	}

	var status Status
	job, err := s.repo.Update(ctx, id, func(j *Job) error {
		status = j.GetStatus()
		return j.Start()
	})
	if errors.Is(err, ErrInvalidTransition) {
		s.logger.Info("skipping hook job",
			slog.String("job_id", id),
			slog.String("status", string(status)),
		)
		return nil
	}
	if err != nil {
		return err
	}

	placement, err := s.overlayer.AddHook(ctx, hook.OverlayRequest{
		VideoPath:  job.InputPath,
		OutputPath: job.OutputPath,
		Text:       job.Text,
		Position:   job.Position,
		Scale:      job.Scale,
	})
	if err != nil {
		return s.fail(ctx, id, err)
	}

	var key string
	if job.Publish {
		key = gallery.ArtifactKey(job.SourceJobID, filepath.Base(job.OutputPath))
		if err := s.publisher.Upload(ctx, job.OutputPath, "", key); err != nil {
			return s.fail(ctx, id, fmt.Errorf("publish: %w", err))
		}
	}

	job, err = s.repo.Update(context.WithoutCancel(ctx), id, func(j *Job) error {
		if err := j.Complete(); err != nil {
			return err
		}
		j.SetPlacement(placement.X, placement.Y)
		if key != "" {
			j.SetOutputKey(key)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("hook job completed",
		slog.String("job_id", job.ID),
		slog.String("output", job.OutputPath),
		slog.String("key", job.OutputKey),
	)
	return nil
}

func (s *Service) fail(ctx context.Context, id string, cause error) error {
	s.logger.Error("hook job failed",
		slog.String("job_id", id),
		slog.String("error", cause.Error()),
	)
	_, err := s.repo.Update(context.WithoutCancel(ctx), id, func(j *Job) error {
		return j.Fail(cause.Error())
	})
	if err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// PruneFinished drops finished jobs that completed more than retention ago.
func (s *Service) PruneFinished(ctx context.Context, retention time.Duration) (int, error) {
	removed, err := s.repo.DeleteFinishedBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	if removed > 0 {
		s.logger.Info("pruned finished hook jobs", slog.Int("removed", removed))
	}
	return removed, nil
}

// PublishArtifacts uploads every clip and metadata file of a clipping job.
func (s *Service) PublishArtifacts(ctx context.Context, sourceJobID string) (gallery.UploadReport, error) {
	if !validName(sourceJobID) {
		return gallery.UploadReport{}, ErrInvalidName
	}
	if s.publisher == nil || !s.publisher.Enabled() {
		return gallery.UploadReport{}, ErrPublishingDisabled
	}
	return s.publisher.UploadJobArtifacts(ctx, filepath.Join(s.outputDir, sourceJobID), sourceJobID)
}
