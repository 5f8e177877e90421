package mocks

import (
	"context"
	"sync"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// MockDocumentStore is an in-memory mock of DocumentStore
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document

	SaveErr   error
	StatusLog []domain.DocumentStatus
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *doc
	m.documents[doc.ID] = &cp
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *MockDocumentStore) GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []*domain.Document
	for _, doc := range m.documents {
		if doc.ProjectID == projectID {
			cp := *doc
			docs = append(docs, &cp)
		}
	}
	return docs, nil
}

func (m *MockDocumentStore) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, stage domain.IngestStage, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.FailedStage = stage
	doc.StatusMessage = message
	m.StatusLog = append(m.StatusLog, status)
	return nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

func (m *MockDocumentStore) CountByProject(ctx context.Context, projectID string) (*domain.ProjectStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &domain.ProjectStats{}
	for _, doc := range m.documents {
		if doc.ProjectID != projectID {
			continue
		}
		stats.TotalDocuments++
		switch doc.Status {
		case domain.DocumentStatusCompleted:
			stats.CompletedDocuments++
			stats.TotalChunks += doc.ChunkCount
		case domain.DocumentStatusFailed:
			stats.FailedDocuments++
		}
	}
	return stats, nil
}
