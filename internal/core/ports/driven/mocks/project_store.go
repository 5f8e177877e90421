package mocks

import (
	"context"
	"sync"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// MockProjectStore is an in-memory mock of ProjectStore
type MockProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project
}

// NewMockProjectStore creates a new MockProjectStore
func NewMockProjectStore() *MockProjectStore {
	return &MockProjectStore{
		projects: make(map[string]*domain.Project),
	}
}

func (m *MockProjectStore) Save(ctx context.Context, project *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *project
	m.projects[project.ID] = &cp
	return nil
}

func (m *MockProjectStore) Get(ctx context.Context, id string) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProjectStore) GetByOwner(ctx context.Context, ownerID string) ([]*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Project
	for _, p := range m.projects {
		if p.OwnerID == ownerID {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockProjectStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

// MockQueryHistoryStore is an in-memory mock of QueryHistoryStore
type MockQueryHistoryStore struct {
	mu      sync.RWMutex
	Records []*domain.QueryRecord
}

// NewMockQueryHistoryStore creates a new MockQueryHistoryStore
func NewMockQueryHistoryStore() *MockQueryHistoryStore {
	return &MockQueryHistoryStore{}
}

func (m *MockQueryHistoryStore) Save(ctx context.Context, record *domain.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *record
	m.Records = append(m.Records, &cp)
	return nil
}

func (m *MockQueryHistoryStore) GetByProject(ctx context.Context, projectID string, limit int) ([]*domain.QueryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.QueryRecord
	for _, r := range m.Records {
		if r.ProjectID == projectID {
			cp := *r
			result = append(result, &cp)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

// MockUserStore is an in-memory mock of UserStore
type MockUserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewMockUserStore creates a new MockUserStore
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users: make(map[string]*domain.User),
	}
}

func (m *MockUserStore) Save(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}
