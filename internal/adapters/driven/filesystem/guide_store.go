// Package filesystem stores guides and embedding records as plain files.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.GuideStore = (*GuideStore)(nil)

// GuidePattern matches guide files inside a game directory
const GuidePattern = "guide_*.md"

// GuideStore reads and writes guides laid out as {root}/{platform}/{game}/guide_*.md
type GuideStore struct {
	root string
}

// NewGuideStore creates a guide store rooted at dir
func NewGuideStore(root string) *GuideStore {
	return &GuideStore{root: root}
}

// Root returns the guides directory
func (s *GuideStore) Root() string {
	return s.root
}

// ListGames returns every game directory holding at least one guide,
// ordered by platform then game directory name.
func (s *GuideStore) ListGames(ctx context.Context) ([]domain.Game, error) {
	platforms, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return []domain.Game{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read guides dir: %w", err)
	}

	games := []domain.Game{}
	for _, p := range platforms {
		if !p.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, p.Name()))
		if err != nil {
			return nil, fmt.Errorf("read platform dir: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			files, _ := filepath.Glob(filepath.Join(s.root, p.Name(), e.Name(), GuidePattern))
			if len(files) == 0 {
				continue
			}
			games = append(games, domain.Game{
				ID:       domain.NormalizeGameID(e.Name()),
				Name:     e.Name(),
				Platform: p.Name(),
			})
		}
	}
	return games, nil
}

// FindGame resolves name to a game: exact normalized id first, then the
// first game in listing order whose id contains, or is contained by, it.
func (s *GuideStore) FindGame(ctx context.Context, name string) (*domain.Game, error) {
	id := domain.NormalizeGameID(name)
	if id == "" {
		return nil, fmt.Errorf("%w: game name is required", domain.ErrInvalidInput)
	}

	games, err := s.ListGames(ctx)
	if err != nil {
		return nil, err
	}

	for _, g := range games {
		if g.ID == id {
			game := g
			return &game, nil
		}
	}
	for _, g := range games {
		if domain.GameMatches(g.ID, id) {
			game := g
			return &game, nil
		}
	}
	return nil, fmt.Errorf("game %q: %w", name, domain.ErrNotFound)
}

// LoadGuides returns every guide file of a game, sorted by file name
func (s *GuideStore) LoadGuides(ctx context.Context, game domain.Game) ([]driven.GuideFile, error) {
	dirName := game.Name
	if dirName == "" {
		dirName = game.ID
	}

	paths, err := filepath.Glob(filepath.Join(s.root, game.Platform, dirName, GuidePattern))
	if err != nil {
		return nil, fmt.Errorf("glob guides: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("guides for %q on %q: %w", game.ID, game.Platform, domain.ErrNotFound)
	}
	sort.Strings(paths)

	files := make([]driven.GuideFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read guide: %w", err)
		}
		files = append(files, driven.GuideFile{Path: path, Content: string(data)})
	}
	return files, nil
}

// SaveGuide writes a guide under its platform and game directory
func (s *GuideStore) SaveGuide(ctx context.Context, guide domain.GuideURL, content string) (string, error) {
	dir := filepath.Join(s.root, guide.Platform, guide.Game)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create game dir: %w", err)
	}

	path := filepath.Join(dir, guide.FileName())
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write guide: %w", err)
	}
	return path, nil
}
