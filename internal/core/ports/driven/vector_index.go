package driven

import (
	"context"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// QueryFilter narrows a vector query within a namespace.
type QueryFilter struct {
	// DocumentIDs restricts hits to chunks of these documents.
	DocumentIDs []string
}

// VectorIndex is the namespace-scoped vector index gateway.
//
// The namespace is always exactly the project identifier and is the sole
// isolation boundary between projects' content: a query issued with
// namespace N must never return records stored under a different
// namespace. Implementations enforce this at the gateway, not in callers.
type VectorIndex interface {
	// Upsert stores records under namespace. Idempotent by chunk ID:
	// re-upserting replaces. Upserts to disjoint chunk IDs are safe
	// concurrently.
	Upsert(ctx context.Context, namespace string, records []domain.VectorRecord) error

	// Query returns up to topK hits ordered by descending similarity.
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter *QueryFilter) ([]domain.ScoredChunk, error)

	// DeleteByIDs removes specific chunks from the namespace.
	DeleteByIDs(ctx context.Context, namespace string, chunkIDs []string) error

	// DeleteByDocument removes all chunks of a document from the namespace.
	DeleteByDocument(ctx context.Context, namespace string, documentID string) error

	// DeleteNamespace removes every record in the namespace.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Ping verifies the index is reachable
	Ping(ctx context.Context) error
}
