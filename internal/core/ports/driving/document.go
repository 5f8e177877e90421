package driving

import (
	"context"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// UploadRequest carries a new document into a project.
type UploadRequest struct {
	ProjectID        string
	OriginalFilename string
	ContentType      string
	Data             []byte
}

// DocumentService manages a project's documents
type DocumentService interface {
	// Upload stores the file, creates a pending document and enqueues
	// an ingest task. Processing is asynchronous; callers poll status.
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByProject retrieves all documents for a project
	GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error)

	// Delete removes a document. Its vectors are deleted from the index
	// before the record is destroyed so no dangling citations survive.
	Delete(ctx context.Context, id string) error

	// Reprocess enqueues a reprocess task for a completed or failed document
	Reprocess(ctx context.Context, id string) error
}

// ProjectService manages projects
type ProjectService interface {
	// Create creates a project with chunking defaults
	Create(ctx context.Context, project *domain.Project) error

	// Get retrieves a project by ID
	Get(ctx context.Context, id string) (*domain.Project, error)

	// GetByOwner retrieves all projects for an owner
	GetByOwner(ctx context.Context, ownerID string) ([]*domain.Project, error)

	// Stats summarises the project's document corpus
	Stats(ctx context.Context, id string) (*domain.ProjectStats, error)

	// Delete removes the project, its documents and its entire index
	// namespace
	Delete(ctx context.Context, id string) error
}
