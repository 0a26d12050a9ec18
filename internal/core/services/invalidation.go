package services

import (
	"context"
	"log/slog"

	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
	"github.com/custodia-labs/gamefriend-core/internal/vectorstore"
)

// ListenForInvalidations drops cached indexes announced by peer instances
// until ctx is cancelled. The next query for the game reloads it from the store.
func ListenForInvalidations(ctx context.Context, inv driven.IndexInvalidator, store *vectorstore.Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	return inv.Subscribe(ctx, func(gameID string) {
		dropped := store.Invalidate(gameID)
		logger.Debug("peer invalidated index", "game_id", gameID, "cached", dropped)
	})
}
