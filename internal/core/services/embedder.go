package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/runtime"
)

// DefaultBatchSize bounds the number of texts sent in one embedding request
const DefaultBatchSize = 32

// BatchEmbedderConfig holds dependencies for BatchEmbedder.
type BatchEmbedderConfig struct {
	Services  *runtime.Services
	BatchSize int
	Logger    *slog.Logger
}

// BatchEmbedder embeds texts in fixed-size batches through the live
// embedding service. The dimension is learned from the first vector and
// enforced for every later one while the model stays the same.
type BatchEmbedder struct {
	services  *runtime.Services
	batchSize int
	logger    *slog.Logger

	mu    sync.Mutex
	model string
	dim   int
}

// NewBatchEmbedder creates a new batch embedder.
func NewBatchEmbedder(cfg BatchEmbedderConfig) *BatchEmbedder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &BatchEmbedder{
		services:  cfg.Services,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Model returns the name of the live embedding model, or "" if none
func (e *BatchEmbedder) Model() string {
	svc := e.services.EmbeddingService()
	if svc == nil {
		return ""
	}
	return svc.Model()
}

// Dimensions returns the dimension observed so far, 0 if none yet
func (e *BatchEmbedder) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}

// Embed returns one vector per text, in input order.
// Any failed or short batch fails the whole call; no partial result is returned.
func (e *BatchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	svc := e.services.EmbeddingService()
	if svc == nil {
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrServiceUnavailable)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := svc.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %v", domain.ErrGenerationFailed, start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: batch %d-%d returned %d vectors", domain.ErrGenerationFailed, start, end, len(batch))
		}
		for _, v := range batch {
			if err := e.checkDimension(svc.Model(), v); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
			}
		}

		vectors = append(vectors, batch...)
		e.logger.Debug("embedded batch", "from", start, "to", end, "total", len(texts))
	}

	return vectors, nil
}

// EmbedOne returns the vector for a single query text
func (e *BatchEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	svc := e.services.EmbeddingService()
	if svc == nil {
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrServiceUnavailable)
	}

	v, err := svc.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if err := e.checkDimension(svc.Model(), v); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *BatchEmbedder) checkDimension(model string, v []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if model != e.model {
		e.model = model
		e.dim = 0
	}
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrDimensionMismatch)
	}
	if e.dim == 0 {
		e.dim = len(v)
		return nil
	}
	if len(v) != e.dim {
		return fmt.Errorf("%w: got %d values, want %d", domain.ErrDimensionMismatch, len(v), e.dim)
	}
	return nil
}
