package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

// Ensure Index implements VectorIndex
var _ driven.VectorIndex = (*Index)(nil)

// Index implements VectorIndex against a Pinecone index over its REST
// data plane. Every call is namespace-scoped; the namespace is the
// project ID and Pinecone keeps namespaces fully disjoint, so project
// isolation holds at this boundary.
type Index struct {
	host   string
	apiKey string
	client *http.Client
}

// Config configures the Pinecone index adapter
type Config struct {
	// Host is the index endpoint, e.g. https://my-index-abc123.svc.us-east-1.pinecone.io
	Host string

	// APIKey authenticates data-plane requests
	APIKey string

	// Timeout for data-plane requests (default 30s)
	Timeout time.Duration
}

// New creates a new Pinecone index adapter
func New(cfg Config) (*Index, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("Pinecone index host is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Pinecone API key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Index{
		host:   cfg.Host,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type pineconeVector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace"`
}

type queryRequest struct {
	Namespace       string                 `json:"namespace"`
	Vector          []float32              `json:"vector"`
	TopK            int                    `json:"topK"`
	Filter          map[string]interface{} `json:"filter,omitempty"`
	IncludeMetadata bool                   `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string                 `json:"id"`
		Score    float32                `json:"score"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	IDs       []string               `json:"ids,omitempty"`
	DeleteAll bool                   `json:"deleteAll,omitempty"`
	Filter    map[string]interface{} `json:"filter,omitempty"`
	Namespace string                 `json:"namespace"`
}

type describeStatsResponse struct {
	Dimension int `json:"dimension"`
}

// Upsert stores records under namespace, keyed by chunk ID
func (p *Index) Upsert(ctx context.Context, namespace string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	req := upsertRequest{
		Vectors:   make([]pineconeVector, len(records)),
		Namespace: namespace,
	}
	for i, r := range records {
		req.Vectors[i] = pineconeVector{
			ID:       r.ChunkID,
			Values:   r.Embedding,
			Metadata: metadataToMap(r.Metadata),
		}
	}

	return p.do(ctx, "/vectors/upsert", req, nil)
}

// Query returns up to topK hits from the namespace, best first
func (p *Index) Query(ctx context.Context, namespace string, vector []float32, topK int, filter *driven.QueryFilter) ([]domain.ScoredChunk, error) {
	req := queryRequest{
		Namespace:       namespace,
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}
	if filter != nil && len(filter.DocumentIDs) > 0 {
		req.Filter = map[string]interface{}{
			"document_id": map[string]interface{}{"$in": filter.DocumentIDs},
		}
	}

	var resp queryResponse
	if err := p.do(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.ScoredChunk, len(resp.Matches))
	for i, m := range resp.Matches {
		hits[i] = domain.ScoredChunk{
			ChunkID:  m.ID,
			Score:    m.Score,
			Metadata: metadataFromMap(m.Metadata),
		}
	}
	return hits, nil
}

// DeleteByIDs removes specific chunks from the namespace
func (p *Index) DeleteByIDs(ctx context.Context, namespace string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	return p.do(ctx, "/vectors/delete", deleteRequest{
		IDs:       chunkIDs,
		Namespace: namespace,
	}, nil)
}

// DeleteByDocument removes all chunks of a document from the namespace
func (p *Index) DeleteByDocument(ctx context.Context, namespace string, documentID string) error {
	return p.do(ctx, "/vectors/delete", deleteRequest{
		Filter: map[string]interface{}{
			"document_id": map[string]interface{}{"$eq": documentID},
		},
		Namespace: namespace,
	}, nil)
}

// DeleteNamespace removes every record in the namespace
func (p *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	return p.do(ctx, "/vectors/delete", deleteRequest{
		DeleteAll: true,
		Namespace: namespace,
	}, nil)
}

// Ping verifies the index is reachable
func (p *Index) Ping(ctx context.Context) error {
	var resp describeStatsResponse
	return p.do(ctx, "/describe_index_stats", struct{}{}, &resp)
}

// do posts a JSON body to a Pinecone data-plane path
func (p *Index) do(ctx context.Context, path string, reqBody, respBody interface{}) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: Pinecone returned status %d: %s", domain.ErrIndexUnavailable, resp.StatusCode, data)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Pinecone returned status %d: %s", resp.StatusCode, data)
	}

	if respBody != nil {
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func metadataToMap(m domain.VectorMetadata) map[string]interface{} {
	return map[string]interface{}{
		"document_id":       m.DocumentID,
		"project_id":        m.ProjectID,
		"start_offset":      m.StartOffset,
		"end_offset":        m.EndOffset,
		"sequence_index":    m.SequenceIndex,
		"original_filename": m.OriginalFilename,
		"content":           m.Content,
	}
}

func metadataFromMap(m map[string]interface{}) domain.VectorMetadata {
	return domain.VectorMetadata{
		DocumentID:       asString(m["document_id"]),
		ProjectID:        asString(m["project_id"]),
		StartOffset:      asInt(m["start_offset"]),
		EndOffset:        asInt(m["end_offset"]),
		SequenceIndex:    asInt(m["sequence_index"]),
		OriginalFilename: asString(m["original_filename"]),
		Content:          asString(m["content"]),
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// Pinecone stores metadata numbers as float64
func asInt(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}
