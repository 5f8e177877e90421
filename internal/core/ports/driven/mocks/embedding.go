package mocks

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// MockEmbeddingService is a mock implementation of EmbeddingService for
// testing. Safe for concurrent use; the pipeline embeds batches in
// parallel.
type MockEmbeddingService struct {
	dimensions int
	model      string

	mu        sync.Mutex
	batchSize int
	failures  int
	CallCount int
	Batches   [][]string
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 384,
		batchSize:  16,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.CallCount++
	m.Batches = append(m.Batches, texts)
	failed := m.failures > 0
	if failed {
		m.failures--
	}
	m.mu.Unlock()

	if failed {
		return nil, domain.ErrEmbeddingProvider
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.generateEmbedding(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	m.CallCount++
	failed := m.failures > 0
	if failed {
		m.failures--
	}
	m.mu.Unlock()

	if failed {
		return nil, domain.ErrEmbeddingProvider
	}
	return m.generateEmbedding(query), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) MaxBatchSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchSize
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// generateEmbedding generates a deterministic embedding based on text hash
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*1103515245 + 12345
		embedding[i] = float32(seed%1000) / 1000.0
	}
	return embedding
}

// Helper methods for testing

// FailNext makes the next n calls fail with ErrEmbeddingProvider.
func (m *MockEmbeddingService) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

// SetMaxBatchSize overrides the batch limit.
func (m *MockEmbeddingService) SetMaxBatchSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchSize = n
}

// BatchCount returns how many Embed calls were made.
func (m *MockEmbeddingService) BatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Batches)
}
