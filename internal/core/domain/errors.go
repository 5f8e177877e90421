package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfiguration indicates a bad chunking configuration
	// (chunk size/overlap). Caller error, never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmbeddingProvider indicates the embedding provider failed.
	// Classified as retryable by the ingestion orchestrator.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrGeneration indicates the generation model failed.
	// Surfaced to the query caller, never silently degraded.
	ErrGeneration = errors.New("generation error")

	// ErrIndexUnavailable indicates the vector index gateway failed
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDocumentLoad indicates the document could not be loaded
	// (unsupported or corrupt file). Fatal, no retry.
	ErrDocumentLoad = errors.New("document load error")

	// ErrEmptyDocument indicates the loader extracted no text. Fatal, no retry.
	ErrEmptyDocument = errors.New("document has no extractable text")

	// ErrIngestionCancelled indicates an in-flight ingestion was stopped
	ErrIngestionCancelled = errors.New("ingestion cancelled")

	// ErrInvalidTransition indicates an illegal document status transition
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates an AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Transient reports whether err is a provider failure the ingestion
// orchestrator may retry. Configuration and load errors are always fatal.
func Transient(err error) bool {
	switch {
	case errors.Is(err, ErrEmbeddingProvider),
		errors.Is(err, ErrIndexUnavailable),
		errors.Is(err, ErrServiceUnavailable):
		return true
	default:
		return false
	}
}
