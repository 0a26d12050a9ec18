package driven

import (
	"context"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// GuideFile is one downloaded guide of a game
type GuideFile struct {
	Path    string
	Content string
}

// GuideStore is the library of downloaded guides,
// laid out as {platform}/{game}/guide_*.md
type GuideStore interface {
	// ListGames returns every game with at least one guide file
	ListGames(ctx context.Context) ([]domain.Game, error)

	// FindGame resolves a user-supplied name to a known game.
	// An exact normalized match wins; otherwise the first game whose id
	// contains, or is contained by, the normalized name is returned.
	// Returns domain.ErrNotFound if nothing matches.
	FindGame(ctx context.Context, name string) (*domain.Game, error)

	// LoadGuides returns all guide files for a game in enumeration order
	LoadGuides(ctx context.Context, game domain.Game) ([]GuideFile, error)

	// SaveGuide writes a downloaded guide and returns its path
	SaveGuide(ctx context.Context, guide domain.GuideURL, content string) (string, error)
}
