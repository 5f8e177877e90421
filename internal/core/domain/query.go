package domain

import "time"

// Citation points at the exact character range in a source document that
// supports part of an answer. Offsets come from the indexed chunk
// metadata, never from parsing model output.
type Citation struct {
	ChunkID          string  `json:"chunk_id"`
	DocumentID       string  `json:"document_id"`
	OriginalFilename string  `json:"original_filename"`
	StartOffset      int     `json:"start_offset"`
	EndOffset        int     `json:"end_offset"`
	Score            float32 `json:"score"`
	Text             string  `json:"text"`
}

// QueryOptions controls retrieval for a single query.
type QueryOptions struct {
	// TopK is the number of chunks to retrieve (1-20, default 5).
	TopK int

	// ScoreThreshold excludes hits scoring below it. Zero means no threshold.
	ScoreThreshold float32

	// DocumentIDs optionally restricts retrieval to specific documents.
	DocumentIDs []string
}

// QueryResult is the answer to one query, with citations for every chunk
// actually retrieved. Ephemeral; constructed per request.
type QueryResult struct {
	QueryID   string     `json:"query_id"`
	ProjectID string     `json:"project_id"`
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`

	// NoContext is set when no chunk scored above the threshold and the
	// generation model was not invoked.
	NoContext bool `json:"no_context,omitempty"`
}

// QueryRecord is a persisted query/answer pair (query history).
// Citations referencing chunks deleted by a later reprocess go stale;
// that is a documented limitation, they are not rewritten.
type QueryRecord struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	CreatedAt time.Time  `json:"created_at"`
}
