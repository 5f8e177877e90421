package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService manages document upload, status and deletion.
// Ingestion itself is asynchronous: upload only enqueues a task.
type documentService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	projectStore  driven.ProjectStore
	vectorIndex   driven.VectorIndex
	storage       driven.FileStorage
	taskQueue     driven.TaskQueue
	loader        driven.DocumentLoader
	maxFileSize   int64
	logger        *slog.Logger
}

// DocumentConfig holds dependencies for the document service.
type DocumentConfig struct {
	DocumentStore driven.DocumentStore
	ChunkStore    driven.ChunkStore
	ProjectStore  driven.ProjectStore
	VectorIndex   driven.VectorIndex
	Storage       driven.FileStorage
	TaskQueue     driven.TaskQueue
	Loader        driven.DocumentLoader
	MaxFileSize   int64
	Logger        *slog.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(cfg DocumentConfig) driving.DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxFileSize := cfg.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = 50 * 1024 * 1024
	}

	return &documentService{
		documentStore: cfg.DocumentStore,
		chunkStore:    cfg.ChunkStore,
		projectStore:  cfg.ProjectStore,
		vectorIndex:   cfg.VectorIndex,
		storage:       cfg.Storage,
		taskQueue:     cfg.TaskQueue,
		loader:        cfg.Loader,
		maxFileSize:   maxFileSize,
		logger:        logger,
	}
}

// Upload stores the file, creates a pending document and enqueues an
// ingest task. Callers poll document status for the outcome.
func (s *documentService) Upload(ctx context.Context, req driving.UploadRequest) (*domain.Document, error) {
	if req.OriginalFilename == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrInvalidInput)
	}
	if int64(len(req.Data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: file exceeds maximum size of %d bytes", domain.ErrInvalidInput, s.maxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(req.OriginalFilename))
	if !s.loader.Supports(ext) {
		return nil, fmt.Errorf("%w: file type %q is not supported", domain.ErrInvalidInput, ext)
	}

	if _, err := s.projectStore.Get(ctx, req.ProjectID); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	id := uuid.NewString()
	storedName := id + ext
	path, err := s.storage.Save(ctx, req.ProjectID, storedName, req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	now := time.Now()
	doc := &domain.Document{
		ID:               id,
		ProjectID:        req.ProjectID,
		Filename:         storedName,
		OriginalFilename: req.OriginalFilename,
		FilePath:         path,
		FileSize:         int64(len(req.Data)),
		ContentType:      req.ContentType,
		Status:           domain.DocumentStatusPending,
		StatusMessage:    "Queued for processing",
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.documentStore.Save(ctx, doc); err != nil {
		_ = s.storage.Remove(ctx, path)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	if err := s.taskQueue.Enqueue(ctx, domain.NewIngestTask(req.ProjectID, doc.ID)); err != nil {
		return nil, fmt.Errorf("failed to enqueue ingest task: %w", err)
	}

	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"project_id", req.ProjectID,
		"filename", req.OriginalFilename,
		"size", doc.FileSize,
	)
	return doc, nil
}

// Get retrieves a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// GetByProject retrieves all documents for a project.
func (s *documentService) GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error) {
	return s.documentStore.GetByProject(ctx, projectID, limit, offset)
}

// Delete removes a document. Vectors are deleted from the index before
// the record is destroyed so no citation can dangle on a live record.
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if err := s.vectorIndex.DeleteByDocument(ctx, doc.ProjectID, doc.ID); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	if err := s.chunkStore.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := s.storage.Remove(ctx, doc.FilePath); err != nil {
		s.logger.Warn("failed to remove stored file", "document_id", doc.ID, "error", err)
	}
	if err := s.documentStore.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.logger.Info("document deleted", "document_id", doc.ID, "project_id", doc.ProjectID)
	return nil
}

// Reprocess enqueues a reprocess task for a document that already left
// the pipeline.
func (s *documentService) Reprocess(ctx context.Context, id string) error {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if !doc.Status.IsTerminal() {
		return fmt.Errorf("%w: document is %s", domain.ErrInvalidTransition, doc.Status)
	}

	if err := s.taskQueue.Enqueue(ctx, domain.NewReprocessTask(doc.ProjectID, doc.ID)); err != nil {
		return fmt.Errorf("failed to enqueue reprocess task: %w", err)
	}

	s.logger.Info("document reprocess enqueued", "document_id", doc.ID)
	return nil
}
