package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/gamefriend-core/internal/adapters/driven/ai"
	"github.com/custodia-labs/gamefriend-core/internal/adapters/driven/filesystem"
	"github.com/custodia-labs/gamefriend-core/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/gamefriend-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/gamefriend-core/internal/adapters/driven/web"
	httpadapter "github.com/custodia-labs/gamefriend-core/internal/adapters/driving/http"
	"github.com/custodia-labs/gamefriend-core/internal/chunker"
	"github.com/custodia-labs/gamefriend-core/internal/config"
	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driving"
	"github.com/custodia-labs/gamefriend-core/internal/core/services"
	"github.com/custodia-labs/gamefriend-core/internal/extractor"
	"github.com/custodia-labs/gamefriend-core/internal/runtime"
	"github.com/custodia-labs/gamefriend-core/internal/scraper"
	"github.com/custodia-labs/gamefriend-core/internal/vectorstore"
	"github.com/custodia-labs/gamefriend-core/internal/watcher"
)

// app is the fully wired pipeline shared by every subcommand
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	runtime     *runtime.Services
	guideStore  *filesystem.GuideStore
	store       *vectorstore.Store
	invalidator driven.IndexInvalidator
	indexer     *services.Indexer
	retrieval   driving.RetrievalService
	guides      driving.GuideService

	// guide files written by Download, skipped by the watcher
	writes *watcher.WriteLog

	// health checks for /ready
	pingers map[string]httpadapter.Pinger
	closers []func() error
}

// newApp connects the configured backends and wires the services
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		writes:  watcher.NewWriteLog(0),
		pingers: make(map[string]httpadapter.Pinger),
	}

	records, lock, err := a.connectStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Redis.URL != "" {
		client, err := a.connectRedis(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		lock = redisadapter.NewLock(client)
		inv := redisadapter.NewInvalidator(client, cfg.Redis.Channel, logger)
		logger.Info("cross-instance invalidation enabled", "instance", inv.InstanceID())
		a.invalidator = inv
	}

	embedding, err := ai.NewFactory().CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	if embedding == nil {
		logger.Warn("embedding provider not configured; search and generation are unavailable",
			"provider", cfg.Embedding.Provider)
	}
	a.runtime = runtime.NewServices(&cfg.Embedding)
	a.runtime.SetEmbeddingService(embedding)
	a.closers = append(a.closers, a.runtime.Close)
	a.pingers["embedding"] = embeddingPinger{a.runtime}

	a.guideStore = filesystem.NewGuideStore(cfg.GuidesDir)
	a.store = vectorstore.NewStore(records, vectorstore.NewIndexCache(), logger)
	embedder := services.NewBatchEmbedder(services.BatchEmbedderConfig{
		Services:  a.runtime,
		BatchSize: cfg.BatchSize,
		Logger:    logger,
	})

	a.indexer = services.NewIndexer(services.IndexerConfig{
		Guides:      a.guideStore,
		Chunker:     chunker.NewChunker(cfg.ChunkConfig()),
		Embedder:    embedder,
		Store:       a.store,
		Lock:        lock,
		LockTTL:     cfg.LockTTL,
		Invalidator: a.invalidator,
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	})
	a.retrieval = services.NewRetrievalService(services.RetrievalConfig{
		Store:       a.store,
		Embedder:    embedder,
		Guides:      a.guideStore,
		Indexer:     a.indexer,
		Invalidator: a.invalidator,
		Logger:      logger,
	})

	coordinator := scraper.NewCoordinator(scraper.Config{
		Fetcher:   web.NewFetcher(cfg.Scraper.UserAgent, cfg.Scraper.Timeout),
		Extractor: extractor.New(nil, logger),
		Delay:     cfg.Scraper.Delay,
		Logger:    logger,
	})
	a.guides = services.NewGuideService(services.GuideServiceConfig{
		Guides:     a.guideStore,
		Downloader: coordinator,
		Indexer:    a.indexer,
		Retrieval:  a.retrieval,
		OnSaved:    a.writes.Record,
		Logger:     logger,
	})

	return a, nil
}

// connectStorage returns the embedding record store and, for Postgres, its
// advisory lock. The filesystem backend runs without a lock.
func (a *app) connectStorage(ctx context.Context) (driven.EmbeddingStore, driven.DistributedLock, error) {
	switch a.cfg.Storage.Backend {
	case config.StoragePostgres:
		a.logger.Info("connecting to PostgreSQL")
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(a.cfg.Storage.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.InitSchema(ctx); err != nil {
			return nil, nil, err
		}
		a.pingers["postgres"] = db
		lock := postgres.NewAdvisoryLock(db)
		a.closers = append(a.closers, lock.Close)
		return postgres.NewEmbeddingStore(db), lock, nil
	default:
		return filesystem.NewEmbeddingStore(a.cfg.EmbeddingsDir), nil, nil
	}
}

func (a *app) connectRedis(ctx context.Context) (*goredis.Client, error) {
	a.logger.Info("connecting to Redis")
	opts, err := goredis.ParseURL(a.cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	a.closers = append(a.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.pingers["redis"] = redisPinger{client}
	return client, nil
}

// Close releases every backend in reverse order of connection
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// reload swaps in the embedding service described by settings and drops
// every cached index, so records regenerated by another process are picked
// up. The running service is kept when the new one fails its health check.
func (a *app) reload(ctx context.Context, settings *domain.EmbeddingSettings) error {
	previous := a.runtime.Settings()

	svc, err := ai.NewFactory().CreateEmbeddingService(settings)
	if err != nil {
		return fmt.Errorf("create embedding service: %w", err)
	}
	if err := a.runtime.ValidateAndSetEmbedding(ctx, settings, svc); err != nil {
		return fmt.Errorf("embedding service %s/%s failed health check: %w", settings.Provider, settings.Model, err)
	}
	a.store.InvalidateAll()

	attrs := []any{"provider", settings.Provider, "model", settings.Model, "available", a.runtime.EmbeddingAvailable()}
	if previous != nil && previous.Model != settings.Model {
		attrs = append(attrs, "previous_model", previous.Model)
	}
	a.logger.Info("reloaded embedding service", attrs...)
	return nil
}

// embeddingPinger reports the live embedding service for /ready
type embeddingPinger struct {
	runtime *runtime.Services
}

func (p embeddingPinger) Ping(ctx context.Context) error {
	svc := p.runtime.EmbeddingService()
	if svc == nil {
		return domain.ErrServiceUnavailable
	}
	return svc.HealthCheck(ctx)
}

type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
