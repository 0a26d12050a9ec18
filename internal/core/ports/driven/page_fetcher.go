package driven

import (
	"context"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// PageFetcher retrieves the raw markup of a remote guide page
type PageFetcher interface {
	// Fetch returns the body of the page at url.
	// Non-success responses are returned as errors.
	Fetch(ctx context.Context, url string) (string, error)
}

// ContentExtractor turns one fetched page into normalized guide text
type ContentExtractor interface {
	// Extract fails with domain.ErrContentNotFound when no guide region exists
	// and domain.ErrEmptyContent when the region has no text.
	Extract(markup string) (string, error)
}

// GuideDownloader fetches every page of a remote guide and merges them
type GuideDownloader interface {
	// FetchAll returns the merged guide; any page failure aborts the download
	FetchAll(ctx context.Context, url string) (*domain.GuideDocument, error)
}
