package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EmbeddingStore = (*EmbeddingStore)(nil)

// EmbeddingStore implements driven.EmbeddingStore using PostgreSQL.
// Chunks and vectors are stored as JSONB so a row round-trips the same
// document the filesystem store writes.
type EmbeddingStore struct {
	db *DB
}

// NewEmbeddingStore creates a new EmbeddingStore
func NewEmbeddingStore(db *DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

// Save upserts the record for its game
func (s *EmbeddingStore) Save(ctx context.Context, record *domain.EmbeddingRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	chunks, err := json.Marshal(record.Chunks)
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	vectors, err := json.Marshal(record.Embeddings)
	if err != nil {
		return fmt.Errorf("marshal embeddings: %w", err)
	}

	query := `
		INSERT INTO embeddings (game_name, model_name, embedding_dim, chunks, embeddings, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (game_name) DO UPDATE SET
			model_name = EXCLUDED.model_name,
			embedding_dim = EXCLUDED.embedding_dim,
			chunks = EXCLUDED.chunks,
			embeddings = EXCLUDED.embeddings,
			updated_at = NOW()
	`
	_, err = s.db.ExecContext(ctx, query,
		domain.NormalizeGameID(record.GameName),
		record.ModelName,
		record.EmbeddingDim,
		chunks,
		vectors,
	)
	return err
}

// Load returns the record for a game
func (s *EmbeddingStore) Load(ctx context.Context, gameID string) (*domain.EmbeddingRecord, error) {
	query := `
		SELECT game_name, model_name, embedding_dim, chunks, embeddings
		FROM embeddings WHERE game_name = $1
	`
	var (
		record  domain.EmbeddingRecord
		chunks  []byte
		vectors []byte
	)
	err := s.db.QueryRowContext(ctx, query, domain.NormalizeGameID(gameID)).Scan(
		&record.GameName,
		&record.ModelName,
		&record.EmbeddingDim,
		&chunks,
		&vectors,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("embeddings for %q: %w", gameID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(chunks, &record.Chunks); err != nil {
		return nil, fmt.Errorf("decode chunks for %q: %w", gameID, err)
	}
	if err := json.Unmarshal(vectors, &record.Embeddings); err != nil {
		return nil, fmt.Errorf("decode embeddings for %q: %w", gameID, err)
	}
	return &record, nil
}

// Exists reports whether a row is stored for the game
func (s *EmbeddingStore) Exists(ctx context.Context, gameID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM embeddings WHERE game_name = $1)",
		domain.NormalizeGameID(gameID),
	).Scan(&exists)
	return exists, err
}

// Delete removes the row for a game
func (s *EmbeddingStore) Delete(ctx context.Context, gameID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM embeddings WHERE game_name = $1", domain.NormalizeGameID(gameID))
	return err
}

// List returns every stored game id in name order
func (s *EmbeddingStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT game_name FROM embeddings ORDER BY game_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
