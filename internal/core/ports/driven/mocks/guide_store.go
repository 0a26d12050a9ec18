package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// MockGuideStore is an in-memory GuideStore for testing.
// Games keep insertion order so fuzzy matching is deterministic.
type MockGuideStore struct {
	mu     sync.RWMutex
	games  []domain.Game
	guides map[string][]driven.GuideFile
	saved  map[string]string
}

// NewMockGuideStore creates a new MockGuideStore
func NewMockGuideStore() *MockGuideStore {
	return &MockGuideStore{
		guides: make(map[string][]driven.GuideFile),
		saved:  make(map[string]string),
	}
}

// AddGuide registers a guide file for a game, adding the game if needed
func (m *MockGuideStore) AddGuide(platform, game, path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := domain.NewGame(platform, game)
	if _, ok := m.guides[g.ID]; !ok {
		m.games = append(m.games, g)
	}
	m.guides[g.ID] = append(m.guides[g.ID], driven.GuideFile{Path: path, Content: content})
}

func (m *MockGuideStore) ListGames(ctx context.Context) ([]domain.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Game, len(m.games))
	copy(out, m.games)
	return out, nil
}

func (m *MockGuideStore) FindGame(ctx context.Context, name string) (*domain.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id := domain.NormalizeGameID(name)
	for _, g := range m.games {
		if g.ID == id {
			game := g
			return &game, nil
		}
	}
	for _, g := range m.games {
		if domain.GameMatches(g.ID, id) {
			game := g
			return &game, nil
		}
	}
	return nil, fmt.Errorf("game %q: %w", name, domain.ErrNotFound)
}

func (m *MockGuideStore) LoadGuides(ctx context.Context, game domain.Game) ([]driven.GuideFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	files, ok := m.guides[game.ID]
	if !ok || len(files) == 0 {
		return nil, fmt.Errorf("guides for %q: %w", game.ID, domain.ErrNotFound)
	}
	return files, nil
}

func (m *MockGuideStore) SaveGuide(ctx context.Context, guide domain.GuideURL, content string) (string, error) {
	path := guide.Platform + "/" + guide.Game + "/" + guide.FileName()

	m.mu.Lock()
	m.saved[path] = content
	m.mu.Unlock()

	m.AddGuide(guide.Platform, guide.Game, path, content)
	return path, nil
}

// Saved returns the content written to path by SaveGuide
func (m *MockGuideStore) Saved(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.saved[path]
	return c, ok
}
