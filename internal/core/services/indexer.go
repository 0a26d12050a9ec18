package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driving"
	"github.com/custodia-labs/gamefriend-core/internal/vectorstore"
	"github.com/custodia-labs/gamefriend-core/internal/worker"
)

// Ensure Indexer implements IndexService
var _ driving.IndexService = (*Indexer)(nil)

// DefaultLockTTL bounds how long one instance may hold a game's generation lock
const DefaultLockTTL = 10 * time.Minute

// IndexerConfig holds dependencies for Indexer.
type IndexerConfig struct {
	Guides   driven.GuideStore
	Chunker  driven.Chunker
	Embedder *BatchEmbedder
	Store    *vectorstore.Store

	// Lock prevents two instances generating the same game (optional)
	Lock    driven.DistributedLock
	LockTTL time.Duration

	// Invalidator tells peer instances to drop their cached index (optional)
	Invalidator driven.IndexInvalidator

	// Concurrency is how many games GenerateAll builds at once (default 1)
	Concurrency int

	Logger *slog.Logger
}

// Indexer turns a game's guide files into a persisted, cached index.
// Generation is all-or-nothing: chunks and vectors are saved together or
// not at all.
type Indexer struct {
	guides      driven.GuideStore
	chunker     driven.Chunker
	embedder    *BatchEmbedder
	store       *vectorstore.Store
	lock        driven.DistributedLock
	lockTTL     time.Duration
	invalidator driven.IndexInvalidator
	pool        *worker.Pool
	logger      *slog.Logger
}

// NewIndexer creates a new indexer.
func NewIndexer(cfg IndexerConfig) *Indexer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	return &Indexer{
		guides:      cfg.Guides,
		chunker:     cfg.Chunker,
		embedder:    cfg.Embedder,
		store:       cfg.Store,
		lock:        cfg.Lock,
		lockTTL:     ttl,
		invalidator: cfg.Invalidator,
		pool:        worker.NewPool(worker.PoolConfig{Concurrency: cfg.Concurrency, Logger: logger}),
		logger:      logger,
	}
}

// Generate rebuilds the index for one game
func (i *Indexer) Generate(ctx context.Context, game string) (*domain.IndexSummary, error) {
	if domain.NormalizeGameID(game) == "" {
		return nil, fmt.Errorf("%w: game name is required", domain.ErrInvalidInput)
	}

	g, err := i.guides.FindGame(ctx, game)
	if err != nil {
		return nil, err
	}
	return i.generate(ctx, *g)
}

// GenerateAll rebuilds every game in the guide library.
// A failing game is recorded in the report and does not stop the run.
func (i *Indexer) GenerateAll(ctx context.Context) (*domain.GenerationReport, error) {
	games, err := i.guides.ListGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return i.GenerateGames(ctx, games)
}

// GenerateGames rebuilds the given games on the worker pool
func (i *Indexer) GenerateGames(ctx context.Context, games []domain.Game) (*domain.GenerationReport, error) {
	report, err := i.pool.Run(ctx, games, func(ctx context.Context, g domain.Game) error {
		_, err := i.generate(ctx, g)
		return err
	})

	i.logger.Info("generation finished",
		"processed", len(report.Processed),
		"failed", len(report.Failed),
		"concurrency", i.pool.Concurrency())
	return report, err
}

// Delete removes a game's persisted index. The guide files stay, so the
// next search regenerates it on demand.
func (i *Indexer) Delete(ctx context.Context, game string) error {
	id := domain.NormalizeGameID(game)
	if id == "" {
		return fmt.Errorf("%w: game name is required", domain.ErrInvalidInput)
	}

	exists, err := i.store.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("no embeddings for %q: %w", id, domain.ErrNotFound)
	}

	if err := i.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	i.publish(ctx, id)

	i.logger.Info("deleted embeddings", "game_id", id)
	return nil
}

func (i *Indexer) publish(ctx context.Context, id string) {
	if i.invalidator == nil {
		return
	}
	if err := i.invalidator.Publish(ctx, id); err != nil {
		i.logger.Warn("failed to publish invalidation", "game_id", id, "error", err)
	}
}

func (i *Indexer) generate(ctx context.Context, g domain.Game) (*domain.IndexSummary, error) {
	start := time.Now()

	if i.lock != nil {
		name := "embeddings:" + g.ID
		acquired, err := i.lock.Acquire(ctx, name, i.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
		}
		if !acquired {
			return nil, fmt.Errorf("%w: %s", domain.ErrGenerationInProgress, g.ID)
		}
		defer func() {
			if err := i.lock.Release(context.WithoutCancel(ctx), name); err != nil {
				i.logger.Warn("failed to release generation lock", "game_id", g.ID, "error", err)
			}
		}()
	}

	files, err := i.guides.LoadGuides(ctx, g)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for _, f := range files {
		chunks = append(chunks, i.chunker.Chunk(f.Content, f.Path)...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: guides for %q contain no text", domain.ErrEmptyContent, g.ID)
	}

	texts := make([]string, len(chunks))
	for n, c := range chunks {
		texts[n] = c.Text
	}

	vectors, err := i.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %q: %w", g.ID, err)
	}

	model := i.embedder.Model()
	if err := i.store.Save(ctx, g.ID, model, chunks, vectors); err != nil {
		return nil, err
	}

	i.publish(ctx, g.ID)

	i.logger.Info("generated embeddings",
		"game_id", g.ID,
		"guides", len(files),
		"chunks", len(chunks),
		"model", model,
		"duration", time.Since(start))

	return &domain.IndexSummary{
		GameID:    g.ID,
		Model:     model,
		Dimension: i.embedder.Dimensions(),
		Guides:    len(files),
		Chunks:    len(chunks),
	}, nil
}
