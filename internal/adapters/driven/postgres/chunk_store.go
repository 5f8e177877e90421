package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements driven.ChunkStore using PostgreSQL.
// Embeddings are not persisted here; the vector index owns them.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// SaveBatch saves multiple chunks in a transaction
func (s *ChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO chunks (id, document_id, project_id, content, sequence_index, start_offset, end_offset, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				sequence_index = EXCLUDED.sequence_index,
				start_offset = EXCLUDED.start_offset,
				end_offset = EXCLUDED.end_offset
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range chunks {
			_, err := stmt.ExecContext(ctx,
				c.ID,
				c.DocumentID,
				c.ProjectID,
				c.Content,
				c.SequenceIndex,
				c.StartOffset,
				c.EndOffset,
				c.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByDocument retrieves all chunks for a document ordered by sequence
func (s *ChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	query := `
		SELECT id, document_id, project_id, content, sequence_index, start_offset, end_offset, created_at
		FROM chunks
		WHERE document_id = $1
		ORDER BY sequence_index
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		err := rows.Scan(
			&c.ID,
			&c.DocumentID,
			&c.ProjectID,
			&c.Content,
			&c.SequenceIndex,
			&c.StartOffset,
			&c.EndOffset,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// DeleteByDocument deletes all chunks for a document
func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	return err
}

// DeleteByIDs deletes specific chunks
func (s *ChunkStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE id = ANY($1)`, pq.Array(ids))
	return err
}
