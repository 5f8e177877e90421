package driven

import (
	"context"
)

// GenerationRequest is a single-turn generation call.
type GenerationRequest struct {
	// System is the behavioural instruction for the model.
	System string

	// Prompt carries the assembled context block plus the question.
	Prompt string

	// Temperature controls sampling; grounded answering uses 0.
	Temperature float32
}

// GenerationService produces answers from assembled prompts.
// One call per query; there is no multi-turn loop.
type GenerationService interface {
	// Generate produces an answer for the request
	Generate(ctx context.Context, req GenerationRequest) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the generation service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the generation service
	Close() error
}
