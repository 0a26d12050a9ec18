package driving

import (
	"context"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// RetrievalService answers questions about a game with ranked guide passages
type RetrievalService interface {
	// Search returns up to opts.TopK chunks, most relevant first.
	// A game without an index is generated once on demand.
	Search(ctx context.Context, game, query string, opts domain.SearchOptions) (*domain.SearchResult, error)

	// GetContext formats the search results as a context block that fits
	// within opts.MaxTokens
	GetContext(ctx context.Context, game, query string, opts domain.SearchOptions) (string, error)

	// Invalidate drops the cached index for a game on this and peer instances
	Invalidate(ctx context.Context, game string) error
}
