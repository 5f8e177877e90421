package ai

import (
	"fmt"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

// Provider names accepted by the factory
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Settings selects and configures an AI provider
type Settings struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// IsConfigured reports whether the settings name a usable provider
func (s Settings) IsConfigured() bool {
	return s.Provider != "" && s.APIKey != ""
}

// NewEmbeddingService creates an embedding service from settings.
// Returns nil without error when no provider is configured.
func NewEmbeddingService(s Settings) (driven.EmbeddingService, error) {
	if !s.IsConfigured() {
		return nil, nil
	}

	switch s.Provider {
	case ProviderGemini:
		return NewGeminiEmbedding(s.APIKey, s.Model, s.BaseURL)
	case ProviderOpenAI:
		return NewOpenAIEmbedding(s.APIKey, s.Model, s.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, s.Provider)
	}
}

// NewGenerationService creates a generation service from settings.
// Returns nil without error when no provider is configured.
func NewGenerationService(s Settings) (driven.GenerationService, error) {
	if !s.IsConfigured() {
		return nil, nil
	}

	switch s.Provider {
	case ProviderGemini:
		return NewGeminiGeneration(s.APIKey, s.Model, s.BaseURL)
	case ProviderOpenAI:
		return NewOpenAIGeneration(s.APIKey, s.Model, s.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, s.Provider)
	}
}
