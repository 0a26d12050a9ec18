package vectorstore

import (
	"sync"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// IndexCache holds at most one live GameIndex per normalized game id.
// Entries live until invalidated; a Put replaces the previous entry.
type IndexCache struct {
	mu      sync.RWMutex
	entries map[string]*GameIndex
}

// NewIndexCache creates an empty cache
func NewIndexCache() *IndexCache {
	return &IndexCache{entries: make(map[string]*GameIndex)}
}

// Get returns the cached index for a game
func (c *IndexCache) Get(gameID string) (*GameIndex, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.entries[domain.NormalizeGameID(gameID)]
	return idx, ok
}

// Put caches the index under its game id
func (c *IndexCache) Put(idx *GameIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[domain.NormalizeGameID(idx.GameID)] = idx
}

// Invalidate drops the entry for a game and reports whether one existed
func (c *IndexCache) Invalidate(gameID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := domain.NormalizeGameID(gameID)
	_, ok := c.entries[id]
	delete(c.entries, id)
	return ok
}

// InvalidateAll empties the cache
func (c *IndexCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*GameIndex)
}

// Len returns the number of cached games
func (c *IndexCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
