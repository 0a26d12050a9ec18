package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

type stubSearcher struct {
	game, query string
	result      *domain.SearchResult
	err         error
}

func (s *stubSearcher) Search(ctx context.Context, game, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	s.game, s.query = game, query
	return s.result, s.err
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func typeQuery(m Model, q string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(q)})
	return next.(Model)
}

func TestModel_EnterRunsSearch(t *testing.T) {
	searcher := &stubSearcher{result: &domain.SearchResult{
		GameID: "soul-blazer",
		Results: []domain.RetrievalResult{
			{Chunk: domain.Chunk{Text: "## Start\nGo north.", Source: "guides/snes/soul-blazer/guide_1.md"}, Score: 0.98, Rank: 1},
			{Chunk: domain.Chunk{Text: "## Items\nFind the sword.", Source: "guides/snes/soul-blazer/guide_1.md"}, Score: 0.38, Rank: 2},
		},
	}}
	m := typeQuery(sized(t, New(searcher, "soul-blazer", domain.SearchOptions{})), "where to go")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.searching)

	next, _ = m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, "soul-blazer", searcher.game)
	assert.Equal(t, "where to go", searcher.query)
	assert.False(t, m.searching)
	assert.Len(t, m.results, 2)
	assert.Contains(t, m.status, "2 results")
	assert.Contains(t, m.renderCurrentResult(), "score=0.980")
	assert.Contains(t, m.renderCurrentResult(), "guide_1.md")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, next.(Model).cursor, "cursor wraps")
}

func TestModel_SearchError(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("no embeddings")}
	m := typeQuery(sized(t, New(searcher, "zelda", domain.SearchOptions{})), "boss")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, _ = next.(Model).Update(cmd())
	m = next.(Model)

	assert.True(t, strings.HasPrefix(m.status, "Error: "))
	assert.Equal(t, "No results yet.", m.renderCurrentResult())
}

func TestModel_EmptyQueryIgnored(t *testing.T) {
	m := sized(t, New(&stubSearcher{}, "zelda", domain.SearchOptions{}))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestModel_Quit(t *testing.T) {
	m := New(&stubSearcher{}, "zelda", domain.SearchOptions{})

	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestModel_ViewBeforeResize(t *testing.T) {
	assert.Equal(t, "Loading...", New(&stubSearcher{}, "zelda", domain.SearchOptions{}).View())
}

func TestHighlightBestParagraph(t *testing.T) {
	text := "Go north.\n\nFind the sword in the cave."

	out := highlightBestParagraph(text, "where is the sword")

	parts := strings.Split(out, "\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "Go north.", parts[0])
	assert.Contains(t, parts[1], "Find the sword in the cave.")

	assert.Equal(t, text, highlightBestParagraph(text, "dragon"))
	assert.Equal(t, "single", highlightBestParagraph("single", "single"))
}
