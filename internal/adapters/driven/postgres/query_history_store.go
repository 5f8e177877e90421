package postgres

import (
	"context"
	"encoding/json"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QueryHistoryStore = (*QueryHistoryStore)(nil)

// QueryHistoryStore implements driven.QueryHistoryStore using PostgreSQL.
// Citations are stored as JSON snapshots; they are not rewritten when the
// underlying chunks are later reprocessed.
type QueryHistoryStore struct {
	db *DB
}

// NewQueryHistoryStore creates a new QueryHistoryStore
func NewQueryHistoryStore(db *DB) *QueryHistoryStore {
	return &QueryHistoryStore{db: db}
}

// Save persists a query record
func (s *QueryHistoryStore) Save(ctx context.Context, record *domain.QueryRecord) error {
	citations, err := json.Marshal(record.Citations)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO query_history (id, project_id, question, answer, citations, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`

	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.ProjectID,
		record.Question,
		record.Answer,
		citations,
	)
	return err
}

// GetByProject retrieves recent query records for a project, newest first
func (s *QueryHistoryStore) GetByProject(ctx context.Context, projectID string, limit int) ([]*domain.QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, project_id, question, answer, citations, created_at
		FROM query_history
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.QueryRecord
	for rows.Next() {
		var r domain.QueryRecord
		var citations []byte
		err := rows.Scan(&r.ID, &r.ProjectID, &r.Question, &r.Answer, &citations, &r.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(citations, &r.Citations); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}
