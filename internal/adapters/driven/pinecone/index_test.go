package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

func newTestIndex(t *testing.T, handler http.HandlerFunc) (*Index, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	idx, err := New(Config{Host: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return idx, server
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Error("expected error for missing host")
	}
	if _, err := New(Config{Host: "https://idx.example"}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestUpsertSendsNamespace(t *testing.T) {
	var got upsertRequest
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/upsert" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Api-Key") != "test-key" {
			t.Error("missing Api-Key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Write([]byte(`{"upsertedCount":1}`))
	})

	err := idx.Upsert(context.Background(), "proj-1", []domain.VectorRecord{{
		ChunkID:   "doc-1-chunk-0",
		Embedding: []float32{0.1, 0.2},
		Metadata: domain.VectorMetadata{
			DocumentID:  "doc-1",
			ProjectID:   "proj-1",
			StartOffset: 0,
			EndOffset:   42,
			Content:     "hello",
		},
	}})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if got.Namespace != "proj-1" {
		t.Errorf("namespace = %q, want proj-1", got.Namespace)
	}
	if len(got.Vectors) != 1 || got.Vectors[0].ID != "doc-1-chunk-0" {
		t.Errorf("vectors = %+v", got.Vectors)
	}
	if got.Vectors[0].Metadata["content"] != "hello" {
		t.Errorf("metadata = %+v", got.Vectors[0].Metadata)
	}
}

func TestQueryRoundTrip(t *testing.T) {
	var got queryRequest
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"matches": []map[string]interface{}{{
				"id":    "doc-1-chunk-2",
				"score": 0.87,
				"metadata": map[string]interface{}{
					"document_id":       "doc-1",
					"project_id":        "proj-1",
					"start_offset":      float64(1800),
					"end_offset":        float64(2800),
					"sequence_index":    float64(2),
					"original_filename": "guide.txt",
					"content":           "chunk text",
				},
			}},
		})
	})

	hits, err := idx.Query(context.Background(), "proj-1", []float32{0.1}, 5, &driven.QueryFilter{
		DocumentIDs: []string{"doc-1"},
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if got.Namespace != "proj-1" || got.TopK != 5 || !got.IncludeMetadata {
		t.Errorf("request = %+v", got)
	}
	if got.Filter == nil {
		t.Error("expected a document filter")
	}

	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
	h := hits[0]
	if h.ChunkID != "doc-1-chunk-2" || h.Score != 0.87 {
		t.Errorf("hit = %+v", h)
	}
	if h.Metadata.StartOffset != 1800 || h.Metadata.EndOffset != 2800 || h.Metadata.SequenceIndex != 2 {
		t.Errorf("metadata = %+v", h.Metadata)
	}
	if h.Metadata.OriginalFilename != "guide.txt" || h.Metadata.Content != "chunk text" {
		t.Errorf("metadata = %+v", h.Metadata)
	}
}

func TestDeleteVariants(t *testing.T) {
	var got deleteRequest
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/delete" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	if err := idx.DeleteByIDs(ctx, "proj-1", []string{"a", "b"}); err != nil {
		t.Fatalf("DeleteByIDs() error = %v", err)
	}
	if got.Namespace != "proj-1" || len(got.IDs) != 2 {
		t.Errorf("request = %+v", got)
	}

	if err := idx.DeleteByDocument(ctx, "proj-1", "doc-1"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	if got.Filter == nil {
		t.Error("expected a document filter")
	}

	if err := idx.DeleteNamespace(ctx, "proj-1"); err != nil {
		t.Fatalf("DeleteNamespace() error = %v", err)
	}
	if !got.DeleteAll || got.Namespace != "proj-1" {
		t.Errorf("request = %+v", got)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	err := idx.Upsert(context.Background(), "proj-1", []domain.VectorRecord{{ChunkID: "x"}})
	if !domain.Transient(err) {
		t.Errorf("error = %v, want a transient index error", err)
	}
}
