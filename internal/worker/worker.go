// Package worker runs per-game index generation across a fixed number of
// goroutines.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// Job generates one game's index
type Job func(ctx context.Context, game domain.Game) error

// PoolConfig holds configuration for the pool.
type PoolConfig struct {
	// Concurrency is the number of games generated at once; 1 keeps input order
	Concurrency int
	Logger      *slog.Logger
}

// Pool fans a list of games out to worker goroutines.
type Pool struct {
	concurrency int
	logger      *slog.Logger
}

// NewPool creates a new pool.
func NewPool(cfg PoolConfig) *Pool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Pool{
		concurrency: concurrency,
		logger:      logger,
	}
}

// Concurrency returns the number of worker goroutines
func (p *Pool) Concurrency() int {
	return p.concurrency
}

// Run applies job to every game. A failing game is recorded in the report
// and does not stop the others. Cancellation stops handing out games; the
// partial report is returned with ctx.Err().
func (p *Pool) Run(ctx context.Context, games []domain.Game, job Job) (*domain.GenerationReport, error) {
	report := &domain.GenerationReport{
		Processed: []string{},
		Failed:    make(map[string]string),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	queue := make(chan domain.Game)

	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			logger := p.logger.With("worker_id", workerID)

			for g := range queue {
				if ctx.Err() != nil {
					continue
				}
				start := time.Now()
				err := job(ctx, g)

				mu.Lock()
				if err != nil {
					report.Failed[g.ID] = err.Error()
				} else {
					report.Processed = append(report.Processed, g.ID)
				}
				mu.Unlock()

				if err != nil {
					logger.Warn("failed to generate embeddings", "game_id", g.ID, "duration", time.Since(start), "error", err)
					continue
				}
				logger.Debug("generated embeddings", "game_id", g.ID, "duration", time.Since(start))
			}
		}(i)
	}

	var runErr error
feed:
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		select {
		case queue <- g:
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		}
	}
	close(queue)
	wg.Wait()

	return report, runErr
}
