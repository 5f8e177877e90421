package driven

import (
	"context"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// ProjectStore handles project persistence (PostgreSQL)
type ProjectStore interface {
	// Save creates or updates a project
	Save(ctx context.Context, project *domain.Project) error

	// Get retrieves a project by ID
	Get(ctx context.Context, id string) (*domain.Project, error)

	// GetByOwner retrieves all projects for an owner
	GetByOwner(ctx context.Context, ownerID string) ([]*domain.Project, error)

	// Delete deletes a project. Document rows cascade in the schema;
	// vector cleanup is the caller's responsibility.
	Delete(ctx context.Context, id string) error
}

// QueryHistoryStore persists query/answer records per project.
type QueryHistoryStore interface {
	// Save persists a query record
	Save(ctx context.Context, record *domain.QueryRecord) error

	// GetByProject retrieves recent query records for a project
	GetByProject(ctx context.Context, projectID string, limit int) ([]*domain.QueryRecord, error)
}

// UserStore handles user persistence (PostgreSQL)
type UserStore interface {
	// Save creates or updates a user
	Save(ctx context.Context, user *domain.User) error

	// Get retrieves a user by ID
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
