package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/custodia-labs/gamefriend-core/internal/chunker"
	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driving"
	"github.com/custodia-labs/gamefriend-core/internal/vectorstore"
)

// Ensure retrievalService implements RetrievalService
var _ driving.RetrievalService = (*retrievalService)(nil)

// RetrievalConfig holds dependencies for the retrieval service.
type RetrievalConfig struct {
	Store    *vectorstore.Store
	Embedder *BatchEmbedder
	Guides   driven.GuideStore

	// Indexer builds a missing index on demand (optional)
	Indexer driving.IndexService

	// Invalidator broadcasts cache drops to peer instances (optional)
	Invalidator driven.IndexInvalidator

	Logger *slog.Logger
}

// retrievalService implements the RetrievalService interface
type retrievalService struct {
	store       *vectorstore.Store
	embedder    *BatchEmbedder
	guides      driven.GuideStore
	indexer     driving.IndexService
	invalidator driven.IndexInvalidator
	logger      *slog.Logger
}

// NewRetrievalService creates a new RetrievalService
func NewRetrievalService(cfg RetrievalConfig) driving.RetrievalService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &retrievalService{
		store:       cfg.Store,
		embedder:    cfg.Embedder,
		guides:      cfg.Guides,
		indexer:     cfg.Indexer,
		invalidator: cfg.Invalidator,
		logger:      logger,
	}
}

// Search returns the chunks nearest to the query
func (s *retrievalService) Search(ctx context.Context, game, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	opts = opts.Normalize()

	idx, err := s.resolveIndex(ctx, game)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := idx.Search(vector, opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", idx.GameID, err)
	}

	s.logger.Debug("search complete", "game_id", idx.GameID, "results", len(results))
	return &domain.SearchResult{
		GameID:  idx.GameID,
		Query:   query,
		Results: results,
	}, nil
}

// GetContext formats the ranked results for a language model.
// Results are added whole, in rank order, until the token budget is spent.
func (s *retrievalService) GetContext(ctx context.Context, game, query string, opts domain.SearchOptions) (string, error) {
	opts = opts.Normalize()

	result, err := s.Search(ctx, game, query, opts)
	if err != nil {
		return "", err
	}
	return FormatContext(result.Results, opts.MaxTokens), nil
}

// FormatContext renders results as "From {source} (relevance: {score}):" blocks
// while their combined token count stays within maxTokens.
func FormatContext(results []domain.RetrievalResult, maxTokens int) string {
	parts := make([]string, 0, len(results))
	total := 0

	for _, r := range results {
		tokens := chunker.CountTokens(r.Chunk.Text)
		if total+tokens > maxTokens {
			break
		}
		parts = append(parts, fmt.Sprintf("From %s (relevance: %.2f):\n%s\n", r.Chunk.Source, r.Score, r.Chunk.Text))
		total += tokens
	}

	return strings.Join(parts, "\n")
}

// Invalidate drops the cached index here and on peer instances
func (s *retrievalService) Invalidate(ctx context.Context, game string) error {
	id := domain.NormalizeGameID(game)
	if id == "" {
		return fmt.Errorf("%w: game name is required", domain.ErrInvalidInput)
	}

	dropped := s.store.Invalidate(id)
	s.logger.Info("invalidated index", "game_id", id, "cached", dropped)

	if s.invalidator != nil {
		if err := s.invalidator.Publish(ctx, id); err != nil {
			return fmt.Errorf("failed to broadcast invalidation: %w", err)
		}
	}
	return nil
}

// resolveIndex finds the index for a game, falling back to the guide
// library's fuzzy match and then to one on-demand generation.
func (s *retrievalService) resolveIndex(ctx context.Context, game string) (*vectorstore.GameIndex, error) {
	id := domain.NormalizeGameID(game)
	if id == "" {
		return nil, fmt.Errorf("%w: game name is required", domain.ErrInvalidInput)
	}

	idx, err := s.store.GetIndex(ctx, id)
	if err == nil {
		return idx, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if s.guides == nil {
		return nil, fmt.Errorf("no embeddings for %q: %w", id, domain.ErrNotFound)
	}
	g, err := s.guides.FindGame(ctx, game)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no embeddings or guides for %q: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	if g.ID != id {
		s.logger.Info("resolved game by partial name", "query", id, "game_id", g.ID)
		idx, err := s.store.GetIndex(ctx, g.ID)
		if err == nil {
			return idx, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	if s.indexer == nil {
		return nil, fmt.Errorf("no embeddings for %q: %w", g.ID, domain.ErrNotFound)
	}

	s.logger.Info("generating missing index", "game_id", g.ID)
	if _, err := s.indexer.Generate(ctx, g.ID); err != nil {
		return nil, err
	}

	idx, err = s.store.GetIndex(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("index for %q after generation: %w", g.ID, err)
	}
	return idx, nil
}
