package domain

import (
	"errors"
	"testing"
)

func TestDocumentStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from DocumentStatus
		to   DocumentStatus
		want bool
	}{
		{"pending to processing", DocumentStatusPending, DocumentStatusProcessing, true},
		{"processing to completed", DocumentStatusProcessing, DocumentStatusCompleted, true},
		{"processing to failed", DocumentStatusProcessing, DocumentStatusFailed, true},
		{"completed to pending via reprocess", DocumentStatusCompleted, DocumentStatusPending, true},
		{"failed to pending via reprocess", DocumentStatusFailed, DocumentStatusPending, true},
		{"pending to completed skips processing", DocumentStatusPending, DocumentStatusCompleted, false},
		{"completed to processing without reprocess", DocumentStatusCompleted, DocumentStatusProcessing, false},
		{"failed to completed", DocumentStatusFailed, DocumentStatusCompleted, false},
		{"processing to pending", DocumentStatusProcessing, DocumentStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestDocument_Transition(t *testing.T) {
	doc := &Document{Status: DocumentStatusPending}

	if err := doc.Transition(DocumentStatusProcessing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Status != DocumentStatusProcessing {
		t.Errorf("expected processing, got %s", doc.Status)
	}

	err := doc.Transition(DocumentStatusProcessing)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if doc.Status != DocumentStatusProcessing {
		t.Errorf("status changed on rejected transition: %s", doc.Status)
	}
}

func TestDocumentStatus_IsTerminal(t *testing.T) {
	if DocumentStatusPending.IsTerminal() || DocumentStatusProcessing.IsTerminal() {
		t.Error("pending/processing must not be terminal")
	}
	if !DocumentStatusCompleted.IsTerminal() || !DocumentStatusFailed.IsTerminal() {
		t.Error("completed/failed must be terminal")
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("doc-1", 0)
	b := ChunkID("doc-1", 0)
	if a != b {
		t.Errorf("expected identical IDs, got %q and %q", a, b)
	}
	if a != "doc-1-chunk-0" {
		t.Errorf("unexpected ID format: %q", a)
	}
	if ChunkID("doc-1", 1) == a {
		t.Error("different sequence indexes must yield different IDs")
	}
}

func TestTransient(t *testing.T) {
	transient := []error{ErrEmbeddingProvider, ErrIndexUnavailable, ErrServiceUnavailable}
	for _, err := range transient {
		if !Transient(err) {
			t.Errorf("expected %v to be transient", err)
		}
	}

	fatal := []error{ErrInvalidConfiguration, ErrDocumentLoad, ErrEmptyDocument, ErrGeneration, ErrNotFound}
	for _, err := range fatal {
		if Transient(err) {
			t.Errorf("expected %v to be fatal", err)
		}
	}
}
