package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/living-docs/livingdocs-core/internal/chunker"
	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driving"
)

// Ensure projectService implements ProjectService
var _ driving.ProjectService = (*projectService)(nil)

type projectService struct {
	projectStore  driven.ProjectStore
	documentStore driven.DocumentStore
	vectorIndex   driven.VectorIndex
	logger        *slog.Logger
}

// ProjectConfig holds dependencies for the project service.
type ProjectConfig struct {
	ProjectStore  driven.ProjectStore
	DocumentStore driven.DocumentStore
	VectorIndex   driven.VectorIndex
	Logger        *slog.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(cfg ProjectConfig) driving.ProjectService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &projectService{
		projectStore:  cfg.ProjectStore,
		documentStore: cfg.DocumentStore,
		vectorIndex:   cfg.VectorIndex,
		logger:        logger,
	}
}

// Create validates chunking defaults and persists the project. The
// generated ID doubles as the project's index namespace.
func (s *projectService) Create(ctx context.Context, project *domain.Project) error {
	if project.Name == "" {
		return fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
	}
	if project.ChunkSize == 0 {
		def := chunker.DefaultConfig()
		project.ChunkSize = def.ChunkSize
		project.ChunkOverlap = def.Overlap
	}
	cfg := chunker.Config{ChunkSize: project.ChunkSize, Overlap: project.ChunkOverlap}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	project.Status = domain.ProjectStatusActive
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	if err := s.projectStore.Save(ctx, project); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	s.logger.Info("project created",
		"project_id", project.ID,
		"name", project.Name,
		"chunk_size", project.ChunkSize,
		"chunk_overlap", project.ChunkOverlap,
	)
	return nil
}

// Get retrieves a project by ID.
func (s *projectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.projectStore.Get(ctx, id)
}

// GetByOwner retrieves all projects for an owner.
func (s *projectService) GetByOwner(ctx context.Context, ownerID string) ([]*domain.Project, error) {
	return s.projectStore.GetByOwner(ctx, ownerID)
}

// Stats summarises the project's document corpus.
func (s *projectService) Stats(ctx context.Context, id string) (*domain.ProjectStats, error) {
	if _, err := s.projectStore.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return s.documentStore.CountByProject(ctx, id)
}

// Delete wipes the project's entire index namespace before removing
// the record. Document and chunk rows cascade in the store.
func (s *projectService) Delete(ctx context.Context, id string) error {
	if _, err := s.projectStore.Get(ctx, id); err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	if err := s.vectorIndex.DeleteNamespace(ctx, id); err != nil {
		return fmt.Errorf("failed to delete index namespace: %w", err)
	}
	if err := s.projectStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Info("project deleted", "project_id", id)
	return nil
}
