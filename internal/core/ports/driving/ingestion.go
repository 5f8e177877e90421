package driving

import (
	"context"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// IngestionOrchestrator coordinates the document ingestion pipeline
type IngestionOrchestrator interface {
	// Ingest drives a pending document through load, chunk, embed and
	// store, updating its lifecycle status along the way
	Ingest(ctx context.Context, documentID string) (*domain.IngestResult, error)

	// Reprocess deletes a document's existing chunks and vectors, then
	// re-runs ingestion with the project's current chunk configuration
	Reprocess(ctx context.Context, documentID string) (*domain.IngestResult, error)

	// Cancel stops an in-flight ingestion for a document. Chunks already
	// upserted by the cancelled attempt are rolled back.
	Cancel(documentID string) bool
}
