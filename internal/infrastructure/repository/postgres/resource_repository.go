package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

// ResourceRepository persists knowledge resources with their embedding
// chunks. The resource row and every chunk row commit in one transaction, so
// a resource without chunks is never visible to readers.
type ResourceRepository struct {
	db *sql.DB
}

func NewResourceRepository(db *sql.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026053002)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS resources (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS embedding_chunks (
	id TEXT PRIMARY KEY,
	resource_id TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	embedding JSONB NOT NULL,
	UNIQUE (resource_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_embedding_chunks_resource ON embedding_chunks(resource_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ResourceRepository) CreateWithChunks(ctx context.Context, resource *domain.Resource, chunks []domain.EmbeddingChunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resource tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO resources (id, content, created_at, updated_at)
VALUES ($1,$2,$3,$4)
`, resource.ID, resource.Content, resource.CreatedAt, resource.UpdatedAt); err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}

	for _, chunk := range chunks {
		embedding, err := json.Marshal(chunk.Vector)
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO embedding_chunks (id, resource_id, chunk_index, content, embedding)
VALUES ($1,$2,$3,$4,$5)
`, chunk.ID, chunk.ResourceID, chunk.Index, chunk.Content, embedding); err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit resource tx: %w", err)
	}
	return nil
}

func (r *ResourceRepository) Delete(ctx context.Context, resourceID string) error {
	// Chunk rows go with the resource via ON DELETE CASCADE.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, resourceID); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}
