package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven/mocks"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driving"
)

type documentFixture struct {
	svc      driving.DocumentService
	docs     *mocks.MockDocumentStore
	chunks   *mocks.MockChunkStore
	projects *mocks.MockProjectStore
	index    *mocks.MockVectorIndex
	storage  *mocks.MockFileStorage
	queue    *mocks.MockTaskQueue
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()

	f := &documentFixture{
		docs:     mocks.NewMockDocumentStore(),
		chunks:   mocks.NewMockChunkStore(),
		projects: mocks.NewMockProjectStore(),
		index:    mocks.NewMockVectorIndex(),
		storage:  mocks.NewMockFileStorage(),
		queue:    mocks.NewMockTaskQueue(),
	}

	f.svc = NewDocumentService(DocumentConfig{
		DocumentStore: f.docs,
		ChunkStore:    f.chunks,
		ProjectStore:  f.projects,
		VectorIndex:   f.index,
		Storage:       f.storage,
		TaskQueue:     f.queue,
		Loader:        mocks.NewMockDocumentLoader(),
		MaxFileSize:   1024,
		Logger:        quietLogger(),
	})

	if err := f.projects.Save(context.Background(), &domain.Project{
		ID:     "proj-1",
		Name:   "docs",
		Status: domain.ProjectStatusActive,
	}); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return f
}

func TestUploadEnqueuesIngestTask(t *testing.T) {
	f := newDocumentFixture(t)

	doc, err := f.svc.Upload(context.Background(), driving.UploadRequest{
		ProjectID:        "proj-1",
		OriginalFilename: "guide.txt",
		ContentType:      "text/plain",
		Data:             []byte("hello world"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Status != domain.DocumentStatusPending {
		t.Errorf("status = %s, want pending", doc.Status)
	}
	if doc.OriginalFilename != "guide.txt" || doc.FileSize != 11 {
		t.Errorf("document = %+v", doc)
	}

	if _, ok := f.storage.Files[doc.FilePath]; !ok {
		t.Error("uploaded bytes not stored")
	}
	if !bytes.Equal(f.storage.Files[doc.FilePath], []byte("hello world")) {
		t.Error("stored bytes do not match upload")
	}

	if f.queue.PendingCount() != 1 {
		t.Fatalf("pending tasks = %d, want 1", f.queue.PendingCount())
	}
	task, _ := f.queue.DequeueWithTimeout(context.Background(), 1)
	if task.Type != domain.TaskTypeIngestDocument || task.DocumentID() != doc.ID {
		t.Errorf("task = %+v, want ingest task for %s", task, doc.ID)
	}
}

func TestUploadValidation(t *testing.T) {
	f := newDocumentFixture(t)

	tests := []struct {
		name string
		req  driving.UploadRequest
	}{
		{"missing filename", driving.UploadRequest{ProjectID: "proj-1", Data: []byte("x")}},
		{"empty file", driving.UploadRequest{ProjectID: "proj-1", OriginalFilename: "a.txt"}},
		{"too large", driving.UploadRequest{ProjectID: "proj-1", OriginalFilename: "a.txt", Data: make([]byte, 2048)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Upload(context.Background(), tt.req); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}

	if _, err := f.svc.Upload(context.Background(), driving.UploadRequest{
		ProjectID:        "missing",
		OriginalFilename: "a.txt",
		Data:             []byte("x"),
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown project error = %v, want ErrNotFound", err)
	}

	if f.queue.PendingCount() != 0 {
		t.Error("rejected uploads must not enqueue tasks")
	}
}

func TestDeleteRemovesVectorsFirst(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, driving.UploadRequest{
		ProjectID:        "proj-1",
		OriginalFilename: "guide.txt",
		Data:             []byte("content"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	chunkID := domain.ChunkID(doc.ID, 0)
	if err := f.index.Upsert(ctx, "proj-1", []domain.VectorRecord{{
		ChunkID:  chunkID,
		Metadata: domain.VectorMetadata{DocumentID: doc.ID, ProjectID: "proj-1"},
	}}); err != nil {
		t.Fatalf("seed vector: %v", err)
	}

	if err := f.svc.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if f.index.Has("proj-1", chunkID) {
		t.Error("vectors must be gone after delete")
	}
	if _, err := f.docs.Get(ctx, doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("document record must be gone after delete")
	}
	if _, ok := f.storage.Files[doc.FilePath]; ok {
		t.Error("stored file must be gone after delete")
	}
}

func TestReprocessRequiresTerminalStatus(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, driving.UploadRequest{
		ProjectID:        "proj-1",
		OriginalFilename: "guide.txt",
		Data:             []byte("content"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	// Still pending: reprocess makes no sense yet.
	if err := f.svc.Reprocess(ctx, doc.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}

	if err := f.docs.UpdateStatus(ctx, doc.ID, domain.DocumentStatusFailed, domain.StageEmbed, "provider down"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := f.svc.Reprocess(ctx, doc.ID); err != nil {
		t.Fatalf("Reprocess() error = %v", err)
	}

	// Upload task plus reprocess task.
	if f.queue.PendingCount() != 2 {
		t.Fatalf("pending tasks = %d, want 2", f.queue.PendingCount())
	}
	_, _ = f.queue.DequeueWithTimeout(ctx, 1)
	task, _ := f.queue.DequeueWithTimeout(ctx, 1)
	if task.Type != domain.TaskTypeReprocessDocument {
		t.Errorf("task type = %s, want reprocess", task.Type)
	}
}
