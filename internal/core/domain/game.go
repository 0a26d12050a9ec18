package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeGameID turns a display name into the key used for caching,
// persistence file names and fuzzy matching.
// "Soul Blazer" and "soul-blazer" both normalize to "soul-blazer".
func NormalizeGameID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// GameMatches reports whether a normalized query partially names a game:
// either id contains the other. Both arguments must already be normalized.
func GameMatches(gameID, query string) bool {
	if gameID == "" || query == "" {
		return false
	}
	return strings.Contains(gameID, query) || strings.Contains(query, gameID)
}

// Game is a game with at least one downloaded guide
type Game struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

// NewGame builds a Game from its directory names
func NewGame(platform, name string) Game {
	return Game{
		ID:       NormalizeGameID(name),
		Name:     name,
		Platform: strings.ToLower(platform),
	}
}

// GuideURL identifies a guide on the source site.
// Paths look like /{platform}/{id}-{game-slug}/faqs/{guide_id}.
type GuideURL struct {
	Raw      string
	Platform string
	Game     string
	GuideID  string
}

// ParseGuideURL extracts platform, game and guide id from a guide URL
func ParseGuideURL(raw string) (GuideURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return GuideURL{}, fmt.Errorf("%w: not a guide URL: %q", ErrInvalidInput, raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return GuideURL{}, fmt.Errorf("%w: could not extract game info from URL: %q", ErrInvalidInput, raw)
	}

	// "588673-soul-blazer" -> "soul-blazer"
	game := parts[1]
	if idx := strings.Index(game, "-"); idx != -1 && idx < len(game)-1 {
		game = game[idx+1:]
	}

	return GuideURL{
		Raw:      raw,
		Platform: strings.ToLower(parts[0]),
		Game:     NormalizeGameID(game),
		GuideID:  parts[len(parts)-1],
	}, nil
}

// FileName returns the guide file name under the game directory
func (g GuideURL) FileName() string {
	return "guide_" + g.GuideID + ".md"
}
