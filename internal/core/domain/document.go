package domain

import (
	"fmt"
	"time"
)

// DocumentStatus is the processing lifecycle state of a document.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// validTransitions is the closed set of legal status transitions.
// completed/failed documents re-enter the pipeline only via an explicit
// reprocess, which resets them to pending first.
var validTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusPending:    {DocumentStatusProcessing},
	DocumentStatusProcessing: {DocumentStatusCompleted, DocumentStatusFailed},
	DocumentStatusCompleted:  {DocumentStatusPending},
	DocumentStatusFailed:     {DocumentStatusPending},
}

// CanTransition reports whether moving from s to next is legal.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the document has left the pipeline.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusCompleted || s == DocumentStatusFailed
}

// IngestStage identifies the pipeline stage an ingestion error originated from.
type IngestStage string

const (
	StageLoad  IngestStage = "load"
	StageChunk IngestStage = "chunk"
	StageEmbed IngestStage = "embed"
	StageStore IngestStage = "store"
)

// Document represents an uploaded document owned by a project.
type Document struct {
	ID               string `json:"id"`
	ProjectID        string `json:"project_id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	FilePath         string `json:"file_path"`
	FileSize         int64  `json:"file_size"`
	ContentType      string `json:"content_type"`

	Status        DocumentStatus `json:"status"`
	StatusMessage string         `json:"status_message,omitempty"`
	FailedStage   IngestStage    `json:"failed_stage,omitempty"`

	ChunkCount     int `json:"chunk_count"`
	PageCount      int `json:"page_count,omitempty"`
	CharacterCount int `json:"character_count,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Transition moves the document to next, rejecting illegal moves.
func (d *Document) Transition(next DocumentStatus) error {
	if !d.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, next)
	}
	d.Status = next
	d.UpdatedAt = time.Now()
	return nil
}

// Chunk is a contiguous, offset-tagged slice of a document's text.
// StartOffset/EndOffset are character positions in the original document
// text, inclusive-exclusive. Chunks are immutable once created.
type Chunk struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	ProjectID     string    `json:"project_id"`
	Content       string    `json:"content"`
	Embedding     []float32 `json:"embedding,omitempty"`
	SequenceIndex int       `json:"sequence_index"`
	StartOffset   int       `json:"start_offset"`
	EndOffset     int       `json:"end_offset"`
	CreatedAt     time.Time `json:"created_at"`
}

// ChunkID derives the stable chunk identifier for a document and sequence
// index. Re-ingesting a document with the same configuration reproduces
// identical IDs, which is what makes index upserts idempotent.
func ChunkID(documentID string, sequenceIndex int) string {
	return fmt.Sprintf("%s-chunk-%d", documentID, sequenceIndex)
}

// VectorRecord is what the vector index stores per chunk.
// Metadata carries exactly the fields a consumer needs to reconstruct a
// citation; the schema must stay stable across reprocessing.
type VectorRecord struct {
	ChunkID   string         `json:"chunk_id"`
	Embedding []float32      `json:"embedding"`
	Metadata  VectorMetadata `json:"metadata"`
}

// VectorMetadata is the stable metadata schema for indexed chunks.
type VectorMetadata struct {
	DocumentID       string `json:"document_id"`
	ProjectID        string `json:"project_id"`
	StartOffset      int    `json:"start_offset"`
	EndOffset        int    `json:"end_offset"`
	SequenceIndex    int    `json:"sequence_index"`
	OriginalFilename string `json:"original_filename"`
	Content          string `json:"content"`
}

// ScoredChunk is a vector query hit: chunk identifier, similarity score
// and the stored metadata.
type ScoredChunk struct {
	ChunkID  string         `json:"chunk_id"`
	Score    float32        `json:"score"`
	Metadata VectorMetadata `json:"metadata"`
}
