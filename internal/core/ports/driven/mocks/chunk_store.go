package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// MockChunkStore is an in-memory mock of ChunkStore
type MockChunkStore struct {
	mu     sync.RWMutex
	chunks map[string]*domain.Chunk

	SaveErr error
}

// NewMockChunkStore creates a new MockChunkStore
func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{
		chunks: make(map[string]*domain.Chunk),
	}
}

func (m *MockChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	for _, c := range chunks {
		cp := *c
		m.chunks[c.ID] = &cp
	}
	return nil
}

func (m *MockChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Chunk
	for _, c := range m.chunks {
		if c.DocumentID == documentID {
			cp := *c
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SequenceIndex < result[j].SequenceIndex })
	return result, nil
}

func (m *MockChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, c := range m.chunks {
		if c.DocumentID == documentID {
			delete(m.chunks, id)
		}
	}
	return nil
}

func (m *MockChunkStore) DeleteByIDs(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.chunks, id)
	}
	return nil
}

// CountByDocument returns how many chunks are stored for a document.
func (m *MockChunkStore) CountByDocument(documentID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.chunks {
		if c.DocumentID == documentID {
			n++
		}
	}
	return n
}
