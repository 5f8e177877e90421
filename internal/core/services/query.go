package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driving"
	"github.com/living-docs/livingdocs-core/internal/runtime"
)

// Ensure queryService implements QueryService
var _ driving.QueryService = (*queryService)(nil)

const (
	maxQuestionLength = 2000
	defaultTopK       = 5
	maxTopK           = 20

	// noContextAnswer is returned when nothing scored above the
	// threshold. Generation is never invoked in that case: the model
	// must not get a chance to fabricate an answer from nothing.
	noContextAnswer = "No relevant context was found in this project's documents for your question."

	systemPrompt = `You are a documentation assistant. Answer the question using only the provided context chunks.
Each chunk is tagged with its identifier in square brackets. After every claim, cite the identifier of the chunk that supports it, e.g. [doc-1-chunk-3].
If the context does not contain the answer, say so. Do not use outside knowledge.`
)

// queryService implements the QueryService interface
type queryService struct {
	vectorIndex  driven.VectorIndex
	projectStore driven.ProjectStore
	history      driven.QueryHistoryStore
	services     *runtime.Services
	retry        domain.RetryPolicy
	logger       *slog.Logger
}

// QueryConfig holds dependencies for the query service.
type QueryConfig struct {
	VectorIndex  driven.VectorIndex
	ProjectStore driven.ProjectStore
	History      driven.QueryHistoryStore // optional
	Services     *runtime.Services
	Retry        domain.RetryPolicy
	Logger       *slog.Logger
}

// NewQueryService creates a new QueryService.
func NewQueryService(cfg QueryConfig) driving.QueryService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = domain.DefaultRetryPolicy()
	}

	return &queryService{
		vectorIndex:  cfg.VectorIndex,
		projectStore: cfg.ProjectStore,
		history:      cfg.History,
		services:     cfg.Services,
		retry:        retry,
		logger:       logger,
	}
}

// Answer retrieves relevant chunks and generates a cited answer.
func (s *queryService) Answer(ctx context.Context, projectID, question string, opts domain.QueryOptions) (*domain.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" || len(question) > maxQuestionLength {
		return nil, fmt.Errorf("%w: question must be 1-%d characters", domain.ErrInvalidInput, maxQuestionLength)
	}

	if _, err := s.projectStore.Get(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	hits, err := s.retrieve(ctx, projectID, question, opts)
	if err != nil {
		return nil, err
	}

	result := &domain.QueryResult{
		QueryID:   uuid.NewString(),
		ProjectID: projectID,
		Question:  question,
		Citations: citationsFromHits(hits),
	}

	if len(hits) == 0 {
		result.Answer = noContextAnswer
		result.NoContext = true
		s.saveHistory(ctx, result)
		return result, nil
	}

	generation := s.services.GenerationService()
	if generation == nil {
		return nil, fmt.Errorf("%w: no generation service configured", domain.ErrServiceUnavailable)
	}

	req := driven.GenerationRequest{
		System:      systemPrompt,
		Prompt:      assemblePrompt(hits, question),
		Temperature: 0,
	}

	var answer string
	err = retryTransient(ctx, s.retry, s.logger, "generate", isGenerationErr, func() error {
		var genErr error
		answer, genErr = generation.Generate(ctx, req)
		return genErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	result.Answer = answer
	s.saveHistory(ctx, result)

	s.logger.Info("query answered",
		"project_id", projectID,
		"retrieved", len(hits),
		"query_id", result.QueryID,
	)
	return result, nil
}

// Similar returns chunks similar to the given text, without generation.
func (s *queryService) Similar(ctx context.Context, projectID, text string, opts domain.QueryOptions) ([]domain.Citation, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxQuestionLength {
		return nil, fmt.Errorf("%w: text must be 1-%d characters", domain.ErrInvalidInput, maxQuestionLength)
	}

	if _, err := s.projectStore.Get(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	hits, err := s.retrieve(ctx, projectID, text, opts)
	if err != nil {
		return nil, err
	}
	return citationsFromHits(hits), nil
}

// retrieve embeds the query text and searches the project namespace,
// applying the score threshold.
func (s *queryService) retrieve(ctx context.Context, projectID, text string, opts domain.QueryOptions) ([]domain.ScoredChunk, error) {
	embedding := s.services.EmbeddingService()
	if embedding == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrServiceUnavailable)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	var vector []float32
	err := retryTransient(ctx, s.retry, s.logger, "embed_query", domain.Transient, func() error {
		var embedErr error
		vector, embedErr = embedding.EmbedQuery(ctx, text)
		return embedErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
	}

	var filter *driven.QueryFilter
	if len(opts.DocumentIDs) > 0 {
		filter = &driven.QueryFilter{DocumentIDs: opts.DocumentIDs}
	}

	var hits []domain.ScoredChunk
	err = retryTransient(ctx, s.retry, s.logger, "query_index", domain.Transient, func() error {
		var queryErr error
		hits, queryErr = s.vectorIndex.Query(ctx, projectID, vector, topK, filter)
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	if opts.ScoreThreshold > 0 {
		kept := hits[:0]
		for _, h := range hits {
			if h.Score >= opts.ScoreThreshold {
				kept = append(kept, h)
			}
		}
		hits = kept
	}
	return hits, nil
}

// assemblePrompt builds the generation prompt from retrieved chunks.
// Only retrieved chunk texts go in, each tagged with its chunk ID so the
// model can reference them inline.
func assemblePrompt(hits []domain.ScoredChunk, question string) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", h.ChunkID, h.Metadata.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// citationsFromHits builds the citation list directly from retrieved
// chunk metadata. Offsets are never re-derived from the model's output,
// so citation correctness is independent of generation quality. Every
// retrieved chunk is cited, not only those the model references inline.
func citationsFromHits(hits []domain.ScoredChunk) []domain.Citation {
	citations := make([]domain.Citation, len(hits))
	for i, h := range hits {
		citations[i] = domain.Citation{
			ChunkID:          h.ChunkID,
			DocumentID:       h.Metadata.DocumentID,
			OriginalFilename: h.Metadata.OriginalFilename,
			StartOffset:      h.Metadata.StartOffset,
			EndOffset:        h.Metadata.EndOffset,
			Score:            h.Score,
			Text:             h.Metadata.Content,
		}
	}
	return citations
}

func (s *queryService) saveHistory(ctx context.Context, result *domain.QueryResult) {
	if s.history == nil {
		return
	}
	record := &domain.QueryRecord{
		ID:        result.QueryID,
		ProjectID: result.ProjectID,
		Question:  result.Question,
		Answer:    result.Answer,
		Citations: result.Citations,
	}
	if err := s.history.Save(ctx, record); err != nil {
		s.logger.Warn("failed to save query history", "query_id", result.QueryID, "error", err)
	}
}

func isGenerationErr(err error) bool {
	return errors.Is(err, domain.ErrGeneration) || errors.Is(err, domain.ErrServiceUnavailable)
}
