package driving

import (
	"context"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// QueryService answers natural-language questions against a project's
// indexed documents
type QueryService interface {
	// Answer retrieves relevant chunks and generates a cited answer.
	// With no retrieved context it returns a no-context result without
	// invoking generation.
	Answer(ctx context.Context, projectID, question string, opts domain.QueryOptions) (*domain.QueryResult, error)

	// Similar returns chunks similar to the given text as citations,
	// without generation
	Similar(ctx context.Context, projectID, text string, opts domain.QueryOptions) ([]domain.Citation, error)
}
