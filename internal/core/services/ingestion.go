package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/living-docs/livingdocs-core/internal/chunker"
	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driving"
	"github.com/living-docs/livingdocs-core/internal/runtime"
)

// Ensure IngestionOrchestrator implements the driving port
var _ driving.IngestionOrchestrator = (*IngestionOrchestrator)(nil)

// IngestionOrchestrator coordinates the document ingestion pipeline.
// It implements the 5-step ingest flow:
//  1. Fetch document and project chunk configuration
//  2. Transition pending -> processing
//  3. Load extracted text
//  4. Chunk with offset preservation
//  5. Embed and upsert in pipelined batches, then mark completed
//
// Any stage failure transitions the document to failed with the
// originating stage and message recorded. Transient provider errors are
// retried per the configured policy before the stage counts as failed.
type IngestionOrchestrator struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	projectStore  driven.ProjectStore
	vectorIndex   driven.VectorIndex
	loader        driven.DocumentLoader
	services      *runtime.Services
	retry         domain.RetryPolicy
	logger        *slog.Logger

	// in-flight ingestion cancel funcs, keyed by document ID
	mu       sync.Mutex
	inFlight map[string]context.CancelFunc
}

// IngestionConfig holds dependencies for IngestionOrchestrator.
type IngestionConfig struct {
	DocumentStore driven.DocumentStore
	ChunkStore    driven.ChunkStore
	ProjectStore  driven.ProjectStore
	VectorIndex   driven.VectorIndex
	Loader        driven.DocumentLoader
	Services      *runtime.Services
	Retry         domain.RetryPolicy
	Logger        *slog.Logger
}

// NewIngestionOrchestrator creates a new ingestion orchestrator.
func NewIngestionOrchestrator(cfg IngestionConfig) *IngestionOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = domain.DefaultRetryPolicy()
	}

	return &IngestionOrchestrator{
		documentStore: cfg.DocumentStore,
		chunkStore:    cfg.ChunkStore,
		projectStore:  cfg.ProjectStore,
		vectorIndex:   cfg.VectorIndex,
		loader:        cfg.Loader,
		services:      cfg.Services,
		retry:         retry,
		logger:        logger,
		inFlight:      make(map[string]context.CancelFunc),
	}
}

// Ingest runs the pipeline for a pending document.
func (o *IngestionOrchestrator) Ingest(ctx context.Context, documentID string) (*domain.IngestResult, error) {
	startTime := time.Now()

	doc, err := o.documentStore.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	project, err := o.projectStore.Get(ctx, doc.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	cfg := chunker.Config{ChunkSize: project.ChunkSize, Overlap: project.ChunkOverlap}

	o.logger.Info("starting ingestion",
		"document_id", doc.ID,
		"project_id", doc.ProjectID,
		"chunk_size", cfg.ChunkSize,
		"overlap", cfg.Overlap,
	)

	if err := doc.Transition(domain.DocumentStatusProcessing); err != nil {
		return nil, err
	}
	if err := o.documentStore.UpdateStatus(ctx, doc.ID, domain.DocumentStatusProcessing, "", "Processing document"); err != nil {
		o.logger.Warn("failed to update status to processing", "document_id", doc.ID, "error", err)
	}

	// Register a cancelable context for this attempt
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.mu.Lock()
	o.inFlight[doc.ID] = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.inFlight, doc.ID)
		o.mu.Unlock()
	}()

	return o.run(runCtx, doc, project, startTime)
}

// Reprocess deletes a document's existing chunks and vectors, then
// re-runs ingestion. Delete-before-rerun is what prevents orphaned stale
// vectors when the chunk configuration changed.
func (o *IngestionOrchestrator) Reprocess(ctx context.Context, documentID string) (*domain.IngestResult, error) {
	doc, err := o.documentStore.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	o.logger.Info("reprocessing document", "document_id", doc.ID, "project_id", doc.ProjectID)

	if err := o.vectorIndex.DeleteByDocument(ctx, doc.ProjectID, doc.ID); err != nil {
		return nil, fmt.Errorf("failed to delete existing vectors: %w", err)
	}
	if err := o.chunkStore.DeleteByDocument(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("failed to delete existing chunks: %w", err)
	}

	if doc.Status != domain.DocumentStatusPending {
		if err := doc.Transition(domain.DocumentStatusPending); err != nil {
			return nil, err
		}
		if err := o.documentStore.UpdateStatus(ctx, doc.ID, domain.DocumentStatusPending, "", "Queued for reprocessing"); err != nil {
			return nil, fmt.Errorf("failed to reset document status: %w", err)
		}
	}

	return o.Ingest(ctx, documentID)
}

// Cancel stops an in-flight ingestion for a document. Returns false if
// no ingestion is running for it.
func (o *IngestionOrchestrator) Cancel(documentID string) bool {
	o.mu.Lock()
	cancel, ok := o.inFlight[documentID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// run executes load -> chunk -> embed -> store for an already-registered
// processing document.
func (o *IngestionOrchestrator) run(ctx context.Context, doc *domain.Document, project *domain.Project, startTime time.Time) (*domain.IngestResult, error) {
	// Step 3: Load
	text, pages, err := o.loader.Load(ctx, doc.FilePath)
	if err != nil {
		return o.failIngest(doc, domain.StageLoad, startTime, fmt.Errorf("%w: %v", domain.ErrDocumentLoad, err))
	}
	if len(text) == 0 {
		return o.failIngest(doc, domain.StageLoad, startTime, domain.ErrEmptyDocument)
	}

	// Step 4: Chunk
	cfg := chunker.Config{ChunkSize: project.ChunkSize, Overlap: project.ChunkOverlap}
	pieces, err := chunker.Split(text, cfg)
	if err != nil {
		return o.failIngest(doc, domain.StageChunk, startTime, err)
	}
	if len(pieces) == 0 {
		return o.failIngest(doc, domain.StageChunk, startTime, domain.ErrEmptyDocument)
	}

	now := time.Now()
	chunks := make([]*domain.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = &domain.Chunk{
			ID:            domain.ChunkID(doc.ID, p.SequenceIndex),
			DocumentID:    doc.ID,
			ProjectID:     doc.ProjectID,
			Content:       p.Content,
			SequenceIndex: p.SequenceIndex,
			StartOffset:   p.StartOffset,
			EndOffset:     p.EndOffset,
			CreatedAt:     now,
		}
	}

	// Step 5: Embed and upsert, pipelined across batches
	upserted, err := o.embedAndStore(ctx, doc, chunks)
	if err != nil {
		// Roll back whatever this attempt already wrote so a cancelled
		// or failed ingestion never leaves a partial chunk set behind.
		o.rollback(doc, upserted)
		stage := domain.StageEmbed
		if isIndexErr(err) {
			stage = domain.StageStore
		}
		return o.failIngest(doc, stage, startTime, err)
	}

	if err := o.chunkStore.SaveBatch(ctx, chunks); err != nil {
		o.rollback(doc, upserted)
		return o.failIngest(doc, domain.StageStore, startTime, fmt.Errorf("failed to save chunks: %w", err))
	}

	// Final commit: completion only after every batch is durably upserted
	doc.ChunkCount = len(chunks)
	doc.PageCount = pages
	doc.CharacterCount = len(text)
	processedAt := time.Now()
	doc.ProcessedAt = &processedAt
	if err := doc.Transition(domain.DocumentStatusCompleted); err != nil {
		return nil, err
	}
	doc.StatusMessage = "Document processed successfully"
	doc.FailedStage = ""
	if err := o.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save completed document: %w", err)
	}

	duration := time.Since(startTime).Seconds()
	o.logger.Info("ingestion completed",
		"document_id", doc.ID,
		"chunks", len(chunks),
		"characters", len(text),
		"duration_seconds", duration,
	)

	return &domain.IngestResult{
		DocumentID:     doc.ID,
		ProjectID:      doc.ProjectID,
		Success:        true,
		ChunkCount:     len(chunks),
		PageCount:      pages,
		CharacterCount: len(text),
		Duration:       duration,
	}, nil
}

// embedAndStore embeds chunks in provider-sized batches and upserts each
// batch as its embeddings arrive. Batches run concurrently; completion
// order does not matter because the document only transitions to
// completed after every batch has landed. Returns the chunk IDs upserted
// so far, for rollback.
func (o *IngestionOrchestrator) embedAndStore(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) ([]string, error) {
	embedding := o.services.EmbeddingService()
	if embedding == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrServiceUnavailable)
	}

	batchSize := embedding.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = 16
	}

	type batch struct {
		chunks []*domain.Chunk
	}
	var batches []batch
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, batch{chunks: chunks[start:end]})
	}

	const maxInFlight = 4

	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, maxInFlight)
		mu       sync.Mutex
		upserted []string
		firstErr error
	)

	for _, b := range batches {
		wg.Add(1)
		go func(b batch) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed {
				return
			}

			ids, err := o.processBatch(ctx, doc, embedding, b.chunks)
			mu.Lock()
			defer mu.Unlock()
			upserted = append(upserted, ids...)
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}(b)
	}
	wg.Wait()

	if firstErr != nil {
		return upserted, firstErr
	}
	if err := ctx.Err(); err != nil {
		return upserted, fmt.Errorf("%w: %v", domain.ErrIngestionCancelled, err)
	}
	return upserted, nil
}

// processBatch embeds one batch and upserts its records, retrying
// transient provider failures with backoff.
func (o *IngestionOrchestrator) processBatch(ctx context.Context, doc *domain.Document, embedding driven.EmbeddingService, chunks []*domain.Chunk) ([]string, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	var vectors [][]float32
	err := o.withRetry(ctx, "embed", func() error {
		var embedErr error
		vectors, embedErr = embedding.Embed(ctx, texts)
		return embedErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingProvider, len(vectors), len(chunks))
	}

	records := make([]domain.VectorRecord, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		c.Embedding = vectors[i]
		ids[i] = c.ID
		records[i] = domain.VectorRecord{
			ChunkID:   c.ID,
			Embedding: vectors[i],
			Metadata: domain.VectorMetadata{
				DocumentID:       c.DocumentID,
				ProjectID:        c.ProjectID,
				StartOffset:      c.StartOffset,
				EndOffset:        c.EndOffset,
				SequenceIndex:    c.SequenceIndex,
				OriginalFilename: doc.OriginalFilename,
				Content:          c.Content,
			},
		}
	}

	err = o.withRetry(ctx, "upsert", func() error {
		return o.vectorIndex.Upsert(ctx, doc.ProjectID, records)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return ids, nil
}

// withRetry runs op, retrying transient failures per the configured
// policy. Fatal errors and context cancellation stop immediately.
func (o *IngestionOrchestrator) withRetry(ctx context.Context, name string, op func() error) error {
	return retryTransient(ctx, o.retry, o.logger, name, domain.Transient, op)
}

// rollback deletes chunks a failed or cancelled attempt already upserted.
// Runs on a fresh context because the attempt's context is likely dead.
func (o *IngestionOrchestrator) rollback(doc *domain.Document, chunkIDs []string) {
	if len(chunkIDs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := o.vectorIndex.DeleteByIDs(ctx, doc.ProjectID, chunkIDs); err != nil {
		o.logger.Error("failed to roll back upserted chunks",
			"document_id", doc.ID,
			"chunks", len(chunkIDs),
			"error", err,
		)
		return
	}
	o.logger.Info("rolled back upserted chunks", "document_id", doc.ID, "chunks", len(chunkIDs))
}

// failIngest marks the document failed with the originating stage and
// returns the result.
func (o *IngestionOrchestrator) failIngest(doc *domain.Document, stage domain.IngestStage, startTime time.Time, err error) (*domain.IngestResult, error) {
	duration := time.Since(startTime).Seconds()

	o.logger.Error("ingestion failed",
		"document_id", doc.ID,
		"stage", stage,
		"duration_seconds", duration,
		"error", err,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = doc.Transition(domain.DocumentStatusFailed)
	if updateErr := o.documentStore.UpdateStatus(ctx, doc.ID, domain.DocumentStatusFailed, stage, err.Error()); updateErr != nil {
		o.logger.Warn("failed to record failure status", "document_id", doc.ID, "error", updateErr)
	}

	return &domain.IngestResult{
		DocumentID: doc.ID,
		ProjectID:  doc.ProjectID,
		Success:    false,
		Stage:      stage,
		Error:      err.Error(),
		Duration:   duration,
	}, err
}

func isIndexErr(err error) bool {
	return errors.Is(err, domain.ErrIndexUnavailable)
}
