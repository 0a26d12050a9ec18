package driving

import (
	"context"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// IndexService builds embedding indexes from downloaded guides
type IndexService interface {
	// Generate rebuilds the index for one game from all of its guide files
	Generate(ctx context.Context, game string) (*domain.IndexSummary, error)

	// GenerateAll rebuilds every known game, continuing past failures
	GenerateAll(ctx context.Context) (*domain.GenerationReport, error)

	// Delete removes a game's persisted index and drops every cached copy
	Delete(ctx context.Context, game string) error
}
