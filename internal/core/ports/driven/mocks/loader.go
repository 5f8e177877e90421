package mocks

import (
	"context"
	"sync"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// MockDocumentLoader is a mock implementation of DocumentLoader
type MockDocumentLoader struct {
	// Texts maps file paths to extracted text.
	Texts map[string]string

	// Pages is the page count hint returned for every load.
	Pages int

	LoadErr error
}

// NewMockDocumentLoader creates a new MockDocumentLoader
func NewMockDocumentLoader() *MockDocumentLoader {
	return &MockDocumentLoader{
		Texts: make(map[string]string),
		Pages: 1,
	}
}

func (m *MockDocumentLoader) Load(ctx context.Context, path string) (string, int, error) {
	if m.LoadErr != nil {
		return "", 0, m.LoadErr
	}
	text, ok := m.Texts[path]
	if !ok {
		return "", 0, domain.ErrDocumentLoad
	}
	return text, m.Pages, nil
}

func (m *MockDocumentLoader) Supports(ext string) bool {
	return true
}

// MockFileStorage is an in-memory mock of FileStorage
type MockFileStorage struct {
	mu    sync.Mutex
	Files map[string][]byte
}

// NewMockFileStorage creates a new MockFileStorage
func NewMockFileStorage() *MockFileStorage {
	return &MockFileStorage{
		Files: make(map[string][]byte),
	}
}

func (m *MockFileStorage) Save(ctx context.Context, projectID, filename string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := projectID + "/" + filename
	m.Files[path] = data
	return path, nil
}

func (m *MockFileStorage) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Files, path)
	return nil
}
