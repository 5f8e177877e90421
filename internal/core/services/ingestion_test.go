package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven/mocks"
	"github.com/living-docs/livingdocs-core/internal/runtime"
)

type ingestFixture struct {
	orch      *IngestionOrchestrator
	docs      *mocks.MockDocumentStore
	chunks    *mocks.MockChunkStore
	projects  *mocks.MockProjectStore
	index     *mocks.MockVectorIndex
	loader    *mocks.MockDocumentLoader
	embedding *mocks.MockEmbeddingService
	svcs      *runtime.Services
}

func fastRetry() domain.RetryPolicy {
	return domain.RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		docs:      mocks.NewMockDocumentStore(),
		chunks:    mocks.NewMockChunkStore(),
		projects:  mocks.NewMockProjectStore(),
		index:     mocks.NewMockVectorIndex(),
		loader:    mocks.NewMockDocumentLoader(),
		embedding: mocks.NewMockEmbeddingService(),
		svcs:      runtime.NewServices(),
	}
	f.svcs.SetEmbeddingService(f.embedding)

	f.orch = NewIngestionOrchestrator(IngestionConfig{
		DocumentStore: f.docs,
		ChunkStore:    f.chunks,
		ProjectStore:  f.projects,
		VectorIndex:   f.index,
		Loader:        f.loader,
		Services:      f.svcs,
		Retry:         fastRetry(),
		Logger:        quietLogger(),
	})
	return f
}

func (f *ingestFixture) seed(t *testing.T, projectID, documentID, text string, chunkSize, overlap int) {
	t.Helper()
	ctx := context.Background()

	if err := f.projects.Save(ctx, &domain.Project{
		ID:           projectID,
		Name:         "test project",
		Status:       domain.ProjectStatusActive,
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
	}); err != nil {
		t.Fatalf("seed project: %v", err)
	}

	path := projectID + "/" + documentID + ".txt"
	f.loader.Texts[path] = text

	if err := f.docs.Save(ctx, &domain.Document{
		ID:               documentID,
		ProjectID:        projectID,
		Filename:         documentID + ".txt",
		OriginalFilename: "guide.txt",
		FilePath:         path,
		Status:           domain.DocumentStatusPending,
	}); err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

func TestIngestHappyPath(t *testing.T) {
	f := newIngestFixture()
	text := strings.Repeat("a", 250)
	f.seed(t, "proj-1", "doc-1", text, 100, 20)

	result, err := f.orch.Ingest(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	// stride 80: [0,100) [80,180) [160,250)
	if result.ChunkCount != 3 {
		t.Errorf("ChunkCount = %d, want 3", result.ChunkCount)
	}
	if result.CharacterCount != 250 {
		t.Errorf("CharacterCount = %d, want 250", result.CharacterCount)
	}

	doc, _ := f.docs.Get(context.Background(), "doc-1")
	if doc.Status != domain.DocumentStatusCompleted {
		t.Errorf("status = %s, want completed", doc.Status)
	}
	if doc.ChunkCount != 3 || doc.ProcessedAt == nil {
		t.Errorf("completed document not fully recorded: %+v", doc)
	}

	if got := f.index.Count("proj-1"); got != 3 {
		t.Errorf("index count = %d, want 3", got)
	}
	if !f.index.Has("proj-1", domain.ChunkID("doc-1", 0)) {
		t.Error("expected deterministic chunk ID in index")
	}

	chunks, _ := f.chunks.GetByDocument(context.Background(), "doc-1")
	if len(chunks) != 3 {
		t.Fatalf("stored chunks = %d, want 3", len(chunks))
	}
	if chunks[1].StartOffset != 80 || chunks[1].EndOffset != 180 {
		t.Errorf("chunk 1 offsets = [%d,%d), want [80,180)", chunks[1].StartOffset, chunks[1].EndOffset)
	}
	if chunks[2].EndOffset != 250 {
		t.Errorf("final chunk end = %d, want 250", chunks[2].EndOffset)
	}
}

func TestIngestBatchesBySizeLimit(t *testing.T) {
	f := newIngestFixture()
	f.embedding.SetMaxBatchSize(2)
	f.seed(t, "proj-1", "doc-1", strings.Repeat("b", 420), 100, 20)

	result, err := f.orch.Ingest(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	// stride 80: chunks at 0,80,160,240,320 -> 5 chunks, 3 batches
	if result.ChunkCount != 5 {
		t.Fatalf("ChunkCount = %d, want 5", result.ChunkCount)
	}
	if got := f.embedding.BatchCount(); got != 3 {
		t.Errorf("embed batches = %d, want 3", got)
	}
	for _, b := range f.embedding.Batches {
		if len(b) > 2 {
			t.Errorf("batch size %d exceeds limit 2", len(b))
		}
	}
}

func TestIngestLoadFailure(t *testing.T) {
	f := newIngestFixture()
	f.seed(t, "proj-1", "doc-1", "some text", 100, 20)
	f.loader.LoadErr = errors.New("corrupt file")

	result, err := f.orch.Ingest(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrDocumentLoad) {
		t.Fatalf("error = %v, want ErrDocumentLoad", err)
	}
	if result.Success || result.Stage != domain.StageLoad {
		t.Errorf("result = %+v, want failed at load", result)
	}

	doc, _ := f.docs.Get(context.Background(), "doc-1")
	if doc.Status != domain.DocumentStatusFailed || doc.FailedStage != domain.StageLoad {
		t.Errorf("document = %s/%s, want failed/load", doc.Status, doc.FailedStage)
	}
	if f.embedding.CallCount != 0 {
		t.Error("embedding must not run after a load failure")
	}
}

func TestIngestEmptyDocumentIsFatal(t *testing.T) {
	f := newIngestFixture()
	f.seed(t, "proj-1", "doc-1", "", 100, 20)

	_, err := f.orch.Ingest(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Fatalf("error = %v, want ErrEmptyDocument", err)
	}

	doc, _ := f.docs.Get(context.Background(), "doc-1")
	if doc.Status != domain.DocumentStatusFailed {
		t.Errorf("status = %s, want failed", doc.Status)
	}
	// Empty documents are a fatal condition: one load, zero retries.
	if f.embedding.CallCount != 0 {
		t.Error("embedding must not run for an empty document")
	}
}

func TestIngestRetriesTransientEmbedFailure(t *testing.T) {
	f := newIngestFixture()
	f.seed(t, "proj-1", "doc-1", strings.Repeat("c", 150), 100, 20)
	f.embedding.FailNext(1)

	result, err := f.orch.Ingest(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Ingest() error = %v, want retry to recover", err)
	}
	if !result.Success {
		t.Fatal("expected success after retry")
	}
	if f.embedding.CallCount != 2 {
		t.Errorf("embed calls = %d, want 2 (failure + retry)", f.embedding.CallCount)
	}
}

func TestIngestFailsWhenEmbedRetriesExhausted(t *testing.T) {
	f := newIngestFixture()
	f.seed(t, "proj-1", "doc-1", strings.Repeat("d", 150), 100, 20)
	f.embedding.FailNext(100)

	result, err := f.orch.Ingest(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("error = %v, want ErrEmbeddingProvider", err)
	}
	if result.Stage != domain.StageEmbed {
		t.Errorf("stage = %s, want embed", result.Stage)
	}

	doc, _ := f.docs.Get(context.Background(), "doc-1")
	if doc.Status != domain.DocumentStatusFailed || doc.FailedStage != domain.StageEmbed {
		t.Errorf("document = %s/%s, want failed/embed", doc.Status, doc.FailedStage)
	}
	if f.index.Count("proj-1") != 0 {
		t.Error("no vectors may remain after a failed ingestion")
	}
}

func TestIngestUpsertFailureRollsBack(t *testing.T) {
	f := newIngestFixture()
	f.embedding.SetMaxBatchSize(1)
	f.seed(t, "proj-1", "doc-1", strings.Repeat("e", 420), 100, 20)
	// Every upsert fails so each batch exhausts its retries.
	f.index.FailNextUpserts(100)

	result, err := f.orch.Ingest(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("error = %v, want ErrIndexUnavailable", err)
	}
	if result.Stage != domain.StageStore {
		t.Errorf("stage = %s, want store", result.Stage)
	}
	if f.index.Count("proj-1") != 0 {
		t.Errorf("index count = %d, want 0 after rollback", f.index.Count("proj-1"))
	}
	if f.chunks.CountByDocument("doc-1") != 0 {
		t.Error("no chunk rows may remain after a failed ingestion")
	}
}

func TestIngestUpsertRetrySucceeds(t *testing.T) {
	f := newIngestFixture()
	f.seed(t, "proj-1", "doc-1", strings.Repeat("f", 150), 100, 20)
	f.index.FailNextUpserts(1)

	result, err := f.orch.Ingest(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Ingest() error = %v, want retry to recover", err)
	}
	if !result.Success {
		t.Fatal("expected success after upsert retry")
	}
	if f.index.Count("proj-1") != result.ChunkCount {
		t.Errorf("index count = %d, want %d", f.index.Count("proj-1"), result.ChunkCount)
	}
}

func TestIngestCancelledContextRollsBack(t *testing.T) {
	f := newIngestFixture()
	f.seed(t, "proj-1", "doc-1", strings.Repeat("g", 250), 100, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.orch.Ingest(ctx, "doc-1")
	if !errors.Is(err, domain.ErrIngestionCancelled) {
		t.Fatalf("error = %v, want ErrIngestionCancelled", err)
	}
	if f.index.Count("proj-1") != 0 {
		t.Error("cancelled ingestion must leave no vectors behind")
	}
	if f.chunks.CountByDocument("doc-1") != 0 {
		t.Error("cancelled ingestion must leave no chunk rows behind")
	}

	doc, _ := f.docs.Get(context.Background(), "doc-1")
	if doc.Status != domain.DocumentStatusFailed {
		t.Errorf("status = %s, want failed", doc.Status)
	}
}

func TestCancelUnknownDocument(t *testing.T) {
	f := newIngestFixture()
	if f.orch.Cancel("nope") {
		t.Error("Cancel() = true for unknown document")
	}
}

func TestReprocessReplacesChunks(t *testing.T) {
	f := newIngestFixture()
	f.seed(t, "proj-1", "doc-1", strings.Repeat("h", 250), 100, 20)
	ctx := context.Background()

	if _, err := f.orch.Ingest(ctx, "doc-1"); err != nil {
		t.Fatalf("initial Ingest() error = %v", err)
	}

	// Shrink the chunk window so reprocessing yields a different set.
	project, _ := f.projects.Get(ctx, "proj-1")
	project.ChunkSize = 50
	project.ChunkOverlap = 10
	if err := f.projects.Save(ctx, project); err != nil {
		t.Fatalf("update project: %v", err)
	}

	result, err := f.orch.Reprocess(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Reprocess() error = %v", err)
	}
	// stride 40: starts 0,40,...,200 -> 6 chunks
	if result.ChunkCount != 6 {
		t.Errorf("ChunkCount = %d, want 6", result.ChunkCount)
	}
	if got := f.index.Count("proj-1"); got != 6 {
		t.Errorf("index count = %d, want 6 (old vectors replaced)", got)
	}
	if f.chunks.CountByDocument("doc-1") != 6 {
		t.Errorf("chunk rows = %d, want 6", f.chunks.CountByDocument("doc-1"))
	}

	doc, _ := f.docs.Get(ctx, "doc-1")
	if doc.Status != domain.DocumentStatusCompleted {
		t.Errorf("status = %s, want completed", doc.Status)
	}
}

func TestIngestUnknownDocument(t *testing.T) {
	f := newIngestFixture()
	_, err := f.orch.Ingest(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
