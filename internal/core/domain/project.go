package domain

import "time"

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

// Project groups documents and owns one vector index namespace.
// The project ID is the namespace: it is the sole isolation boundary
// between projects' indexed content.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	OwnerID     string        `json:"owner_id"`
	Status      ProjectStatus `json:"status"`

	// Per-project chunking defaults, applied when an ingest request
	// does not override them.
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectStats summarises a project's document corpus.
type ProjectStats struct {
	TotalDocuments     int `json:"total_documents"`
	CompletedDocuments int `json:"completed_documents"`
	FailedDocuments    int `json:"failed_documents"`
	TotalChunks        int `json:"total_chunks"`
}
