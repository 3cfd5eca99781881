package job

import (
	"errors"
	"testing"

	"github.com/maauso/openshorts-hooks/internal/hook"
)

func TestNew(t *testing.T) {
	job := New()

	if job.ID == "" {
		t.Error("expected job to have an ID")
	}
	if job.Status != StatusInQueue {
		t.Errorf("expected status %s, got %s", StatusInQueue, job.Status)
	}
	if job.Position != hook.PositionTop {
		t.Errorf("expected default position top, got %s", job.Position)
	}
	if job.Scale != 1.0 {
		t.Errorf("expected default scale 1.0, got %v", job.Scale)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestNewWithID(t *testing.T) {
	id := "hook-test-123"
	job := NewWithID(id)

	if job.ID != id {
		t.Errorf("expected ID %s, got %s", id, job.ID)
	}
	if job.Status != StatusInQueue {
		t.Errorf("expected status %s, got %s", StatusInQueue, job.Status)
	}
}

func TestJob_ValidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"IN_QUEUE to RUNNING", StatusInQueue, StatusRunning, false},
		{"IN_QUEUE to CANCELLED", StatusInQueue, StatusCancelled, false},
		{"RUNNING to COMPLETED", StatusRunning, StatusCompleted, false},
		{"RUNNING to FAILED", StatusRunning, StatusFailed, false},
		{"RUNNING to CANCELLED", StatusRunning, StatusCancelled, true},
		{"IN_QUEUE to COMPLETED", StatusInQueue, StatusCompleted, true},
		{"IN_QUEUE to FAILED", StatusInQueue, StatusFailed, true},
		{"COMPLETED to RUNNING", StatusCompleted, StatusRunning, true},
		{"FAILED to RUNNING", StatusFailed, StatusRunning, true},
		{"CANCELLED to RUNNING", StatusCancelled, StatusRunning, true},
		{"unknown status", Status("PAUSED"), StatusRunning, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := New()
			job.Status = tt.from

			err := job.TransitionTo(tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("expected ErrInvalidTransition, got %v", err)
				}
				if job.Status != tt.from {
					t.Errorf("status changed on rejected transition: %s", job.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if job.Status != tt.to {
				t.Errorf("expected status %s, got %s", tt.to, job.Status)
			}
		})
	}
}

func TestJob_Lifecycle(t *testing.T) {
	job := New()

	if err := job.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if job.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
	if job.IsTerminal() {
		t.Error("running job should not be terminal")
	}

	if err := job.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if job.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
	if !job.IsTerminal() {
		t.Error("completed job should be terminal")
	}
}

func TestJob_Fail(t *testing.T) {
	job := New()
	_ = job.Start()

	if err := job.Fail("ffmpeg exited 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != StatusFailed {
		t.Errorf("expected status %s, got %s", StatusFailed, job.Status)
	}
	if job.Error != "ffmpeg exited 1" {
		t.Errorf("expected error message to be recorded, got %q", job.Error)
	}
}

func TestJob_Fail_FromQueueRejected(t *testing.T) {
	job := New()

	if err := job.Fail("boom"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if job.Error != "" {
		t.Errorf("rejected failure must not record an error, got %q", job.Error)
	}
}

func TestJob_Cancel(t *testing.T) {
	job := New()
	if err := job.Cancel(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !job.IsTerminal() {
		t.Error("cancelled job should be terminal")
	}
	if err := job.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancelled job must not start, got %v", err)
	}
}

func TestJob_SetPlacementAndKey(t *testing.T) {
	job := New()
	before := job.UpdatedAt

	job.SetPlacement(54, 384)
	job.SetOutputKey("job-1/talk_clip_1_hook.mp4")

	if job.OverlayX != 54 || job.OverlayY != 384 {
		t.Errorf("unexpected placement %d,%d", job.OverlayX, job.OverlayY)
	}
	if job.OutputKey != "job-1/talk_clip_1_hook.mp4" {
		t.Errorf("unexpected key %s", job.OutputKey)
	}
	if job.UpdatedAt.Before(before) {
		t.Error("expected UpdatedAt to advance")
	}
}

func TestJob_Clone(t *testing.T) {
	job := New()
	job.SourceJobID = "job-1"
	job.Clip = "talk_clip_1.mp4"
	job.Text = "POV:\nhook"
	job.Position = hook.PositionBottom
	job.Scale = 1.3
	job.Publish = true
	_ = job.Start()

	clone := job.Clone()

	if clone.ID != job.ID || clone.Status != job.Status || clone.Text != job.Text {
		t.Error("clone should carry the same values")
	}
	if clone.Position != hook.PositionBottom || clone.Scale != 1.3 || !clone.Publish {
		t.Error("clone should carry request fields")
	}

	clone.Status = StatusCompleted
	if job.Status == StatusCompleted {
		t.Error("modifying clone should not affect original")
	}
}

func TestJob_GetStatus_ThreadSafe(t *testing.T) {
	job := New()

	done := make(chan bool)
	go func() {
		for i := 0; i < 100; i++ {
			_ = job.GetStatus()
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			_ = job.Start()
		}
		done <- true
	}()

	<-done
	<-done
}
