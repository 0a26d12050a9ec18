package driven

import "context"

// IndexInvalidator broadcasts cache invalidations between instances that
// share one embedding store.
type IndexInvalidator interface {
	// Publish announces that the cached index for a game is stale
	Publish(ctx context.Context, gameID string) error

	// Subscribe calls fn for every invalidation published by any instance
	// until ctx is cancelled.
	Subscribe(ctx context.Context, fn func(gameID string)) error
}
