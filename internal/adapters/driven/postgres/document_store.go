package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, project_id, filename, original_filename, file_path, file_size, content_type,
	status, status_message, failed_stage, chunk_count, page_count, character_count,
	created_at, updated_at, processed_at`

// Save creates or updates a document
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			original_filename = EXCLUDED.original_filename,
			file_path = EXCLUDED.file_path,
			file_size = EXCLUDED.file_size,
			content_type = EXCLUDED.content_type,
			status = EXCLUDED.status,
			status_message = EXCLUDED.status_message,
			failed_stage = EXCLUDED.failed_stage,
			chunk_count = EXCLUDED.chunk_count,
			page_count = EXCLUDED.page_count,
			character_count = EXCLUDED.character_count,
			updated_at = EXCLUDED.updated_at,
			processed_at = EXCLUDED.processed_at
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.ProjectID,
		doc.Filename,
		doc.OriginalFilename,
		doc.FilePath,
		doc.FileSize,
		doc.ContentType,
		string(doc.Status),
		doc.StatusMessage,
		string(doc.FailedStage),
		doc.ChunkCount,
		doc.PageCount,
		doc.CharacterCount,
		doc.CreatedAt,
		doc.UpdatedAt,
		NullTime(doc.ProcessedAt),
	)
	return err
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// GetByProject retrieves documents for a project, newest first
func (s *DocumentStore) GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateStatus records a lifecycle transition
func (s *DocumentStore) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, stage domain.IngestStage, message string) error {
	query := `
		UPDATE documents
		SET status = $2, failed_stage = $3, status_message = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, string(status), string(stage), message, time.Now())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return nil
}

// Delete deletes a document (chunks cascade)
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return nil
}

// CountByProject returns per-status document counts for a project
func (s *DocumentStore) CountByProject(ctx context.Context, projectID string) (*domain.ProjectStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COALESCE(SUM(chunk_count) FILTER (WHERE status = 'completed'), 0)
		FROM documents
		WHERE project_id = $1
	`

	var stats domain.ProjectStats
	err := s.db.QueryRowContext(ctx, query, projectID).Scan(
		&stats.TotalDocuments,
		&stats.CompletedDocuments,
		&stats.FailedDocuments,
		&stats.TotalChunks,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var status, stage string
	var processedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.ProjectID,
		&doc.Filename,
		&doc.OriginalFilename,
		&doc.FilePath,
		&doc.FileSize,
		&doc.ContentType,
		&status,
		&doc.StatusMessage,
		&stage,
		&doc.ChunkCount,
		&doc.PageCount,
		&doc.CharacterCount,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&processedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.Status = domain.DocumentStatus(status)
	doc.FailedStage = domain.IngestStage(stage)
	doc.ProcessedAt = TimePtr(processedAt)
	return &doc, nil
}
