// Package scraper downloads multi-page guides and merges them into one
// guide document.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// pageSeparator joins the text of consecutive pages
const pageSeparator = "\n\n"

// Config holds coordinator dependencies
type Config struct {
	Fetcher   driven.PageFetcher
	Extractor driven.ContentExtractor
	Delay     time.Duration
	Logger    *slog.Logger
}

// Coordinator drives the extractor across every page of a guide
type Coordinator struct {
	fetcher   driven.PageFetcher
	extractor driven.ContentExtractor
	throttle  *Throttle
	logger    *slog.Logger
}

// NewCoordinator creates a pagination coordinator
func NewCoordinator(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := cfg.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	return &Coordinator{
		fetcher:   cfg.Fetcher,
		extractor: cfg.Extractor,
		throttle:  NewThrottle(delay),
		logger:    logger,
	}
}

// FetchAll downloads every page of the guide at rawURL and returns the
// merged document. Any fetch or extraction failure aborts the download.
func (c *Coordinator) FetchAll(ctx context.Context, rawURL string) (*domain.GuideDocument, error) {
	guide, err := domain.ParseGuideURL(rawURL)
	if err != nil {
		return nil, err
	}

	first, err := c.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(first))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}

	total := PageCount(doc)
	last := PagesToFetch(total)
	c.logger.Info("downloading guide",
		"game", guide.Game,
		"platform", guide.Platform,
		"reported_pages", total,
		"pages", last)

	text, err := c.extractor.Extract(first)
	if err != nil {
		return nil, fmt.Errorf("page 1 of %s: %w", rawURL, err)
	}
	parts := []string{text}
	sources := []string{rawURL}

	for page := 2; page <= last; page++ {
		pageURL, err := PageURL(rawURL, page)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}

		markup, err := c.fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		text, err := c.extractor.Extract(markup)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", page, rawURL, err)
		}

		c.logger.Debug("fetched page", "page", page, "of", last, "chars", len(text))
		parts = append(parts, text)
		sources = append(sources, pageURL)
	}

	return &domain.GuideDocument{
		GameID:   guide.Game,
		Platform: guide.Platform,
		RawText:  strings.Join(parts, pageSeparator),
		Sources:  sources,
	}, nil
}

func (c *Coordinator) fetch(ctx context.Context, url string) (string, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return "", err
	}
	defer c.throttle.Mark()

	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	return body, nil
}
