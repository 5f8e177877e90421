// Package memory provides an in-process VectorIndex for development and
// single-node deployments without a Pinecone index.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

// Ensure Index implements VectorIndex
var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory vector index using exact cosine similarity.
// Records are partitioned per namespace; a query never crosses
// namespaces.
type Index struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]domain.VectorRecord
}

// New creates a new in-memory index
func New() *Index {
	return &Index{
		namespaces: make(map[string]map[string]domain.VectorRecord),
	}
}

// Upsert stores records under namespace, keyed by chunk ID
func (m *Index) Upsert(ctx context.Context, namespace string, records []domain.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]domain.VectorRecord)
		m.namespaces[namespace] = ns
	}
	for _, r := range records {
		ns[r.ChunkID] = r
	}
	return nil
}

// Query scans the namespace and returns the topK most similar records
func (m *Index) Query(ctx context.Context, namespace string, vector []float32, topK int, filter *driven.QueryFilter) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []domain.ScoredChunk
	for id, r := range m.namespaces[namespace] {
		if filter != nil && len(filter.DocumentIDs) > 0 && !matchesDocument(filter.DocumentIDs, r.Metadata.DocumentID) {
			continue
		}
		hits = append(hits, domain.ScoredChunk{
			ChunkID:  id,
			Score:    cosine(vector, r.Embedding),
			Metadata: r.Metadata,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteByIDs removes specific chunks from the namespace
func (m *Index) DeleteByIDs(ctx context.Context, namespace string, chunkIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns := m.namespaces[namespace]
	for _, id := range chunkIDs {
		delete(ns, id)
	}
	return nil
}

// DeleteByDocument removes all chunks of a document from the namespace
func (m *Index) DeleteByDocument(ctx context.Context, namespace string, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, r := range m.namespaces[namespace] {
		if r.Metadata.DocumentID == documentID {
			delete(m.namespaces[namespace], id)
		}
	}
	return nil
}

// DeleteNamespace removes every record in the namespace
func (m *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.namespaces, namespace)
	return nil
}

// Ping verifies the index is reachable
func (m *Index) Ping(ctx context.Context) error {
	return nil
}

func matchesDocument(ids []string, documentID string) bool {
	for _, id := range ids {
		if id == documentID {
			return true
		}
	}
	return false
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
