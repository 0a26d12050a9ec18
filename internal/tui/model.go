// Package tui is an interactive browser over one game's guide index.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// Searcher is the browser-facing subset of the retrieval service.
type Searcher interface {
	Search(ctx context.Context, game, query string, opts domain.SearchOptions) (*domain.SearchResult, error)
}

// searchTimeout bounds one query including an on-demand index build
const searchTimeout = 5 * time.Minute

// searchDoneMsg carries a finished search back into Update
type searchDoneMsg struct {
	query  string
	result *domain.SearchResult
	err    error
}

// Model is the Bubble Tea model for the guide browser.
type Model struct {
	searcher  Searcher
	game      string
	opts      domain.SearchOptions
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.RetrievalResult
	status    string
	cursor    int
	ready     bool
	searching bool
	lastQuery string
}

// New creates a browser for game
func New(searcher Searcher, game string, opts domain.SearchOptions) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the guide and press Enter"
	ti.Focus()
	return Model{
		searcher: searcher,
		game:     game,
		opts:     opts.Normalize(),
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Type a question. Up/Down moves between results, Esc quits.",
	}
}

// Run starts the program on the terminal and blocks until the user quits
func Run(searcher Searcher, game string, opts domain.SearchOptions) error {
	_, err := tea.NewProgram(New(searcher, game, opts), tea.WithAltScreen()).Run()
	return err
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and search-completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, query box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil

	case searchDoneMsg:
		m.searching = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.results = nil
		} else {
			m.results = msg.result.Results
			m.cursor = 0
			m.lastQuery = msg.query
			m.status = fmt.Sprintf("%d results for %q", len(m.results), msg.query)
		}
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.searching {
				return m, nil
			}
			m.searching = true
			m.status = fmt.Sprintf("Searching %s for %q...", m.game, q)
			return m, m.search(q)
		case tea.KeyDown:
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case tea.KeyUp:
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// search runs off the UI goroutine and reports back with searchDoneMsg
func (m Model) search(query string) tea.Cmd {
	searcher, game, opts := m.searcher, m.game, m.opts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		result, err := searcher.Search(ctx, game, query, opts)
		return searchDoneMsg{query: query, result: result, err: err}
	}
}

// View renders the layout and the selected result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Guide browser: " + m.game)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  score=%.3f  %s", m.cursor+1, len(m.results), r.Score, filepath.Base(r.Chunk.Source))
	return title + "\n\n" + highlightBestParagraph(r.Chunk.Text, m.lastQuery)
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// highlightBestParagraph emphasizes the paragraph sharing the most words
// with the query. Ties go to the earlier paragraph.
func highlightBestParagraph(text, query string) string {
	paragraphs := strings.Split(text, "\n\n")
	qWords := wordSet(query)
	if len(qWords) == 0 || len(paragraphs) < 2 {
		return text
	}

	best, bestScore := 0, 0
	for i, p := range paragraphs {
		if score := overlap(qWords, p); score > bestScore {
			best, bestScore = i, score
		}
	}
	if bestScore == 0 {
		return text
	}
	paragraphs[best] = highlightStyle.Render(paragraphs[best])
	return strings.Join(paragraphs, "\n\n")
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

func overlap(query map[string]struct{}, paragraph string) int {
	score := 0
	for w := range wordSet(paragraph) {
		if _, ok := query[w]; ok {
			score++
		}
	}
	return score
}
