package driven

import (
	"context"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL)
type DocumentStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByProject retrieves all documents for a project with pagination
	GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error)

	// UpdateStatus records a lifecycle transition with an optional
	// message and originating stage
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, stage domain.IngestStage, message string) error

	// Delete deletes a document
	Delete(ctx context.Context, id string) error

	// CountByProject returns per-status document counts for a project
	CountByProject(ctx context.Context, projectID string) (*domain.ProjectStats, error)
}

// ChunkStore handles chunk persistence (PostgreSQL)
type ChunkStore interface {
	// SaveBatch saves multiple chunks in a transaction
	SaveBatch(ctx context.Context, chunks []*domain.Chunk) error

	// GetByDocument retrieves all chunks for a document ordered by sequence
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	// DeleteByDocument deletes all chunks for a document
	DeleteByDocument(ctx context.Context, documentID string) error

	// DeleteByIDs deletes specific chunks
	DeleteByIDs(ctx context.Context, ids []string) error
}
