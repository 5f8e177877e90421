package domain

// IngestResult summarises one ingestion run for a document.
type IngestResult struct {
	DocumentID     string      `json:"document_id"`
	ProjectID      string      `json:"project_id"`
	Success        bool        `json:"success"`
	ChunkCount     int         `json:"chunk_count"`
	PageCount      int         `json:"page_count"`
	CharacterCount int         `json:"character_count"`
	Stage          IngestStage `json:"stage,omitempty"`
	Error          string      `json:"error,omitempty"`
	Duration       float64     `json:"duration_seconds"`
}
