package driven

import (
	"context"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// EmbeddingStore persists one embedding record per normalized game id.
// Writes replace the previous record for the game.
type EmbeddingStore interface {
	// Save writes the record, replacing any existing one for the game
	Save(ctx context.Context, record *domain.EmbeddingRecord) error

	// Load returns the record for a game, or domain.ErrNotFound
	Load(ctx context.Context, gameID string) (*domain.EmbeddingRecord, error)

	// Exists reports whether a record is persisted for the game
	Exists(ctx context.Context, gameID string) (bool, error)

	// Delete removes the record for a game. Missing records are not an error.
	Delete(ctx context.Context, gameID string) error

	// List returns the normalized ids of every persisted game
	List(ctx context.Context) ([]string, error)
}
