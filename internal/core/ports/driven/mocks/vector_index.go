package mocks

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

// MockVectorIndex is an in-memory mock of the VectorIndex gateway.
// Records are keyed per namespace so isolation behaviour can be asserted.
type MockVectorIndex struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]domain.VectorRecord

	failUpserts int
	failQueries int

	UpsertCalls int
	QueryCalls  int
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{
		namespaces: make(map[string]map[string]domain.VectorRecord),
	}
}

func (m *MockVectorIndex) Upsert(ctx context.Context, namespace string, records []domain.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls++
	if m.failUpserts > 0 {
		m.failUpserts--
		return domain.ErrIndexUnavailable
	}

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

func (m *MockVectorIndex) Query(ctx context.Context, namespace string, vector []float32, topK int, filter *driven.QueryFilter) ([]domain.ScoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCalls++
	if m.failQueries > 0 {
		m.failQueries--
		return nil, domain.ErrIndexUnavailable
	}

	var hits []domain.ScoredChunk
	for id, r := range m.namespaces[namespace] {
		if filter != nil && len(filter.DocumentIDs) > 0 && !contains(filter.DocumentIDs, r.Metadata.DocumentID) {
			continue
		}
		hits = append(hits, domain.ScoredChunk{
			ChunkID:  id,
			Score:    cosine(vector, r.Embedding),
			Metadata: r.Metadata,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *MockVectorIndex) DeleteByIDs(ctx context.Context, namespace string, chunkIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns := m.namespaces[namespace]
	for _, id := range chunkIDs {
		delete(ns, id)
	}
	return nil
}

func (m *MockVectorIndex) DeleteByDocument(ctx context.Context, namespace string, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, r := range m.namespaces[namespace] {
		if r.Metadata.DocumentID == documentID {
			delete(m.namespaces[namespace], id)
		}
	}
	return nil
}

func (m *MockVectorIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.namespaces, namespace)
	return nil
}

func (m *MockVectorIndex) Ping(ctx context.Context) error {
	return nil
}

// Helper methods for testing

// Count returns the number of records stored under a namespace.
func (m *MockVectorIndex) Count(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[namespace])
}

// Has reports whether a chunk ID exists under a namespace.
func (m *MockVectorIndex) Has(namespace, chunkID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.namespaces[namespace][chunkID]
	return ok
}

// FailNextUpserts makes the next n Upsert calls fail with ErrIndexUnavailable.
func (m *MockVectorIndex) FailNextUpserts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUpserts = n
}

// FailNextQueries makes the next n Query calls fail with ErrIndexUnavailable.
func (m *MockVectorIndex) FailNextQueries(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failQueries = n
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float32
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
}
