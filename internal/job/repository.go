package job

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Repository stores hook jobs. Implementations return copies, so callers
// never share a *Job with the store.
type Repository interface {
	// Save inserts or replaces the job with the same ID.
	Save(ctx context.Context, job *Job) error

	// FindByID returns ErrJobNotFound for unknown IDs.
	FindByID(ctx context.Context, id string) (*Job, error)

	// Update applies fn to the stored job and keeps the result only when fn
	// returns nil. No other write to the job can interleave with fn. The
	// updated job is returned.
	Update(ctx context.Context, id string, fn func(*Job) error) (*Job, error)

	// List returns all jobs, newest first.
	List(ctx context.Context) ([]*Job, error)

	// DeleteFinishedBefore drops terminal jobs that completed before cutoff
	// and returns how many were removed.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int, error)
}
