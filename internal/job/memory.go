package job

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps hook jobs in a map. Nothing survives a restart.
type MemoryRepository struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{jobs: make(map[string]*Job)}
}

// Save stores a clone of job.
func (r *MemoryRepository) Save(_ context.Context, job *Job) error {
	stored := job.Clone()

	r.mu.Lock()
	r.jobs[stored.ID] = stored
	r.mu.Unlock()
	return nil
}

// FindByID returns a clone of the stored job.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Job, error) {
	r.mu.RLock()
	stored, ok := r.jobs[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrJobNotFound
	}
	return stored.Clone(), nil
}

// Update runs fn on a clone of the stored job under the write lock and stores
// the clone if fn succeeds.
func (r *MemoryRepository) Update(_ context.Context, id string, fn func(*Job) error) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	next := stored.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	r.jobs[id] = next
	return next.Clone(), nil
}

// List returns clones of all jobs ordered by creation time, newest first.
// Jobs created in the same instant are ordered by descending ID.
func (r *MemoryRepository) List(_ context.Context) ([]*Job, error) {
	r.mu.RLock()
	jobs := make([]*Job, 0, len(r.jobs))
	for _, stored := range r.jobs {
		jobs = append(jobs, stored.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(jobs, func(a, b *Job) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return jobs, nil
}

// DeleteFinishedBefore drops terminal jobs whose CompletedAt is before cutoff.
func (r *MemoryRepository) DeleteFinishedBefore(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, stored := range r.jobs {
		if stored.IsTerminal() && stored.CompletedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed, nil
}
