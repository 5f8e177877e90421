package mocks

import (
	"context"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

// MockGenerationService is a mock implementation of GenerationService for testing
type MockGenerationService struct {
	Answer   string
	failures int

	CallCount   int
	LastRequest driven.GenerationRequest
}

// NewMockGenerationService creates a new MockGenerationService
func NewMockGenerationService() *MockGenerationService {
	return &MockGenerationService{
		Answer: "mock answer",
	}
}

func (m *MockGenerationService) Generate(ctx context.Context, req driven.GenerationRequest) (string, error) {
	m.CallCount++
	m.LastRequest = req
	if m.failures > 0 {
		m.failures--
		return "", domain.ErrGeneration
	}
	return m.Answer, nil
}

func (m *MockGenerationService) Model() string {
	return "mock-generation-model"
}

func (m *MockGenerationService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockGenerationService) Close() error {
	return nil
}

// FailNext makes the next n Generate calls fail with ErrGeneration.
func (m *MockGenerationService) FailNext(n int) {
	m.failures = n
}
