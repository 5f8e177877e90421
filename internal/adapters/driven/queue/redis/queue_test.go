package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// setupTestQueue creates a miniredis-backed queue
func setupTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	queue, err := NewQueue(client, "test-worker")
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}

	return queue, mr, func() {
		client.Close()
		mr.Close()
	}
}

func TestEnqueueDequeue(t *testing.T) {
	queue, _, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewIngestTask("proj-1", "doc-1")
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	got, err := queue.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("DequeueWithTimeout() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected a task")
	}
	if got.ID != task.ID || got.Type != domain.TaskTypeIngestDocument {
		t.Errorf("task = %+v", got)
	}
	if got.DocumentID() != "doc-1" || got.ProjectID != "proj-1" {
		t.Errorf("task payload = %+v", got.Payload)
	}
	if got.Status != domain.TaskStatusProcessing || got.Attempts != 1 {
		t.Errorf("claimed task = %s/%d, want processing/1", got.Status, got.Attempts)
	}
}

func TestDequeueEmptyQueue(t *testing.T) {
	queue, _, cleanup := setupTestQueue(t)
	defer cleanup()

	got, err := queue.DequeueWithTimeout(context.Background(), 1)
	if err != nil {
		t.Fatalf("DequeueWithTimeout() error = %v", err)
	}
	if got != nil {
		t.Errorf("task = %+v, want nil", got)
	}
}

func TestAckCompletesTask(t *testing.T) {
	queue, _, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewIngestTask("proj-1", "doc-1")
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := queue.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatalf("DequeueWithTimeout() error = %v", err)
	}

	if err := queue.Ack(ctx, task.ID); err != nil {
		t.Fatalf("Ack() error = %v", err)
	}

	got, err := queue.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Status != domain.TaskStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}

	// Nothing left to dequeue
	next, _ := queue.DequeueWithTimeout(ctx, 1)
	if next != nil {
		t.Errorf("dequeued %+v after ack", next)
	}
}

func TestNackSchedulesRetry(t *testing.T) {
	queue, mr, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewIngestTask("proj-1", "doc-1")
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := queue.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatalf("DequeueWithTimeout() error = %v", err)
	}

	if err := queue.Nack(ctx, task.ID, "embedding provider down"); err != nil {
		t.Fatalf("Nack() error = %v", err)
	}

	got, err := queue.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Status != domain.TaskStatusPending {
		t.Errorf("status = %s, want pending (retry scheduled)", got.Status)
	}
	if got.Error != "embedding provider down" {
		t.Errorf("error = %q", got.Error)
	}

	// The retry is parked in the scheduled set until due
	if !mr.Exists(scheduledTasks) {
		t.Error("expected task in the scheduled set")
	}
}

func TestNackExhaustsRetries(t *testing.T) {
	queue, _, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewIngestTask("proj-1", "doc-1")
	task.MaxAttempts = 1
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := queue.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatalf("DequeueWithTimeout() error = %v", err)
	}

	if err := queue.Nack(ctx, task.ID, "still broken"); err != nil {
		t.Fatalf("Nack() error = %v", err)
	}

	got, err := queue.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Status != domain.TaskStatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	queue, _, cleanup := setupTestQueue(t)
	defer cleanup()

	if _, err := queue.GetTask(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestPing(t *testing.T) {
	queue, mr, cleanup := setupTestQueue(t)
	defer cleanup()

	if err := queue.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	mr.Close()
	if err := queue.Ping(context.Background()); err == nil {
		t.Error("expected ping failure after redis shutdown")
	}
}
