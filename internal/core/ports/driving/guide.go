package driving

import (
	"context"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// GuideService manages the downloaded guide library
type GuideService interface {
	// ListGames returns every game with at least one guide
	ListGames(ctx context.Context) ([]domain.Game, error)

	// Download fetches every page of a guide, saves it and rebuilds the
	// game's index
	Download(ctx context.Context, url string) (*domain.DownloadResult, error)
}
