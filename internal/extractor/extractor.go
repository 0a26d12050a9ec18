// Package extractor turns fetched guide pages into normalized markdown-like text.
package extractor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ContentExtractor = (*Extractor)(nil)

// Mode is a rendering rule for a located region. Modes are tried in order
// and the first whose Match returns true renders the region.
type Mode struct {
	Name   string
	Match  func(region *goquery.Selection) bool
	Render func(region *goquery.Selection) (string, error)
}

// DefaultModes returns the pre-formatted rule followed by the structured fallback.
func DefaultModes() []Mode {
	return []Mode{
		{Name: "preformatted", Match: isPreformatted, Render: renderPreformatted},
		{Name: "structured", Match: func(*goquery.Selection) bool { return true }, Render: renderStructured},
	}
}

// Extractor implements driven.ContentExtractor
type Extractor struct {
	regions *Registry
	modes   []Mode
	logger  *slog.Logger
}

// New creates an extractor. A nil registry uses DefaultRegistry.
func New(regions *Registry, logger *slog.Logger) *Extractor {
	if regions == nil {
		regions = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		regions: regions,
		modes:   DefaultModes(),
		logger:  logger,
	}
}

// Extract parses a page and returns its guide text.
func (e *Extractor) Extract(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	return e.ExtractDocument(doc)
}

// ExtractDocument returns the guide text of an already parsed page.
func (e *Extractor) ExtractDocument(doc *goquery.Document) (string, error) {
	region, matched, ok := e.regions.Locate(doc)
	if !ok {
		return "", fmt.Errorf("%w: tried %s", domain.ErrContentNotFound, strings.Join(e.regions.List(), ", "))
	}

	for _, mode := range e.modes {
		if !mode.Match(region) {
			continue
		}

		text, err := mode.Render(region)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: region %s", domain.ErrEmptyContent, matched.Name)
		}

		e.logger.Debug("extracted guide content",
			"region", matched.Name,
			"mode", mode.Name,
			"chars", len(text))
		return text, nil
	}

	return "", fmt.Errorf("%w: no rendering mode for region %s", domain.ErrContentNotFound, matched.Name)
}

// structuralTags mark a region as semantic HTML rather than a text dump
var structuralTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "ul": true, "ol": true, "table": true,
}

// isPreformatted reports whether the region is a single plain-text dump:
// exactly one non-empty direct <pre> child without nested <code>, and no
// sibling structural elements or stray text.
func isPreformatted(region *goquery.Selection) bool {
	pres := 0
	other := false

	region.Contents().Each(func(_ int, child *goquery.Selection) {
		switch name := goquery.NodeName(child); {
		case name == "#text":
			if strings.TrimSpace(child.Text()) != "" {
				other = true
			}
		case name == "pre":
			if child.Find("code").Length() > 0 {
				other = true
				return
			}
			if strings.TrimSpace(child.Text()) != "" {
				pres++
			}
		case structuralTags[name]:
			other = true
		}
	})

	return pres == 1 && !other
}

// renderPreformatted returns the <pre> text verbatim apart from line endings.
func renderPreformatted(region *goquery.Selection) (string, error) {
	var text string
	region.ChildrenFiltered("pre").EachWithBreak(func(_ int, pre *goquery.Selection) bool {
		if strings.TrimSpace(pre.Text()) == "" {
			return true
		}
		text = pre.Text()
		return false
	})

	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyContent
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text, nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
