package job

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New()
	job.Text = "hook"

	if err := repo.Save(ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := repo.FindByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID != job.ID || saved.Text != "hook" {
		t.Errorf("unexpected saved job: %+v", saved)
	}
}

func TestMemoryRepository_Save_Update(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New()
	_ = repo.Save(ctx, job)

	_ = job.Start()
	job.SetPlacement(10, 20)
	_ = repo.Save(ctx, job)

	saved, _ := repo.FindByID(ctx, job.ID)
	if saved.Status != StatusRunning {
		t.Errorf("expected status %s, got %s", StatusRunning, saved.Status)
	}
	if saved.OverlayY != 20 {
		t.Errorf("expected overlay y 20, got %d", saved.OverlayY)
	}
}

func TestMemoryRepository_Update(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New()
	_ = repo.Save(ctx, job)

	updated, err := repo.Update(ctx, job.ID, func(j *Job) error {
		return j.Start()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusRunning {
		t.Errorf("expected status %s, got %s", StatusRunning, updated.Status)
	}

	saved, _ := repo.FindByID(ctx, job.ID)
	if saved.Status != StatusRunning {
		t.Errorf("expected stored status %s, got %s", StatusRunning, saved.Status)
	}
}

func TestMemoryRepository_Update_FailureKeepsStoredJob(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New()
	_ = repo.Save(ctx, job)

	boom := errors.New("boom")
	_, err := repo.Update(ctx, job.ID, func(j *Job) error {
		j.SetPlacement(1, 2)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	saved, _ := repo.FindByID(ctx, job.ID)
	if saved.Status != StatusInQueue || saved.OverlayX != 0 {
		t.Errorf("stored job changed: %+v", saved)
	}

	if _, err := repo.Update(ctx, "nonexistent", func(*Job) error { return nil }); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRepository_FindByID_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.FindByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRepository_FindByID_ReturnsClone(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New()
	_ = repo.Save(ctx, job)

	found, _ := repo.FindByID(ctx, job.ID)
	found.Text = "changed"
	_ = found.Start()

	original, _ := repo.FindByID(ctx, job.ID)
	if original.Text != "" {
		t.Error("modifying returned job should not affect repository")
	}
	if original.Status != StatusInQueue {
		t.Error("modifying returned job status should not affect repository")
	}
}

func TestMemoryRepository_List_NewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	jobs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected 0 jobs, got %d", len(jobs))
	}

	older := NewWithID("hook-old")
	older.CreatedAt = time.Now().Add(-time.Minute)
	newer := NewWithID("hook-new")
	_ = repo.Save(ctx, older)
	_ = repo.Save(ctx, newer)

	jobs, _ = repo.List(ctx)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "hook-new" || jobs[1].ID != "hook-old" {
		t.Errorf("expected newest first, got %s, %s", jobs[0].ID, jobs[1].ID)
	}

	jobs[0].Text = "mutated"
	again, _ := repo.FindByID(ctx, "hook-new")
	if again.Text != "" {
		t.Error("modifying listed job should not affect repository")
	}
}

func TestMemoryRepository_DeleteFinishedBefore(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	queued := NewWithID("hook-queued")
	done := NewWithID("hook-done")
	_ = done.Start()
	_ = done.Complete()
	failed := NewWithID("hook-failed")
	_ = failed.Start()
	_ = failed.Fail("boom")
	for _, j := range []*Job{queued, done, failed} {
		_ = repo.Save(ctx, j)
	}

	removed, err := repo.DeleteFinishedBefore(ctx, done.CompletedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected nothing completed strictly before cutoff, removed %d", removed)
	}

	removed, _ = repo.DeleteFinishedBefore(ctx, time.Now().Add(time.Second))
	if removed != 2 {
		t.Errorf("expected 2 finished jobs removed, got %d", removed)
	}
	if _, err := repo.FindByID(ctx, "hook-queued"); err != nil {
		t.Errorf("queued job should survive, got %v", err)
	}
	if _, err := repo.FindByID(ctx, "hook-done"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			_ = repo.Save(ctx, New())
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			_, _ = repo.List(ctx)
		}
		done <- true
	}()

	<-done
	<-done
}
