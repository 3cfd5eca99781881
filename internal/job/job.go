// Package job provides the hook job aggregate: one request to burn a hook
// onto a generated clip, tracked through a small state machine, plus the
// repository port used to persist it.
package job

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/maauso/openshorts-hooks/internal/hook"
	"github.com/maauso/openshorts-hooks/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusInQueue indicates the job is waiting for a render slot.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates the hook is being rendered and burned.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the hooked clip was written (and published
	// if requested).
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates rendering, ffmpeg or publishing failed.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the job was cancelled before it started.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning, StatusCancelled},
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// Job is a hook overlay request and its outcome.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// SourceJobID is the clipping job whose output directory holds the clip.
	SourceJobID string
	// Clip is the clip file name inside the source job directory.
	Clip string
	// Text is the hook text; newlines are kept.
	Text string
	// Position is the vertical anchor of the hook.
	Position hook.Position
	// Scale multiplies the base font size.
	Scale float64
	// Publish uploads the hooked clip when set.
	Publish bool

	Status Status
	// Error contains any error message if the job failed.
	Error string

	InputPath  string
	OutputPath string
	// OutputKey is the object key of the published clip.
	OutputKey string
	// OverlayX and OverlayY are the hook's top-left corner on the frame.
	OverlayX int
	OverlayY int

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial IN_QUEUE status.
func New() *Job {
	return NewWithID(id.Generate())
}

// NewWithID creates a new Job with the specified ID and initial IN_QUEUE status.
// Useful for testing or when ID needs to be externally generated.
func NewWithID(jobID string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Position:  hook.PositionTop,
		Scale:     1.0,
		Status:    StatusInQueue,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from IN_QUEUE to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete transitions the job to COMPLETED state.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	if err := j.TransitionTo(StatusFailed); err != nil {
		return err
	}
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return nil
}

// Cancel transitions a queued job to CANCELLED state.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetPlacement records where the hook was burned.
func (j *Job) SetPlacement(x, y int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OverlayX = x
	j.OverlayY = y
	j.UpdatedAt = time.Now()
}

// SetOutputKey records the published object key.
func (j *Job) SetOutputKey(key string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputKey = key
	j.UpdatedAt = time.Now()
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(validTransitions[j.Status]) == 0
}

// Clone creates a copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		SourceJobID: j.SourceJobID,
		Clip:        j.Clip,
		Text:        j.Text,
		Position:    j.Position,
		Scale:       j.Scale,
		Publish:     j.Publish,
		Status:      j.Status,
		Error:       j.Error,
		InputPath:   j.InputPath,
		OutputPath:  j.OutputPath,
		OutputKey:   j.OutputKey,
		OverlayX:    j.OverlayX,
		OverlayY:    j.OverlayY,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
