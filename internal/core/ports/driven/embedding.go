package driven

import (
	"context"
)

// EmbeddingService generates text embeddings.
// Vectors come back one per input text, in input order, with a dimension
// that stays constant for the lifetime of the service.
type EmbeddingService interface {
	// Embed generates embeddings for multiple texts in a single request
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the expected embedding dimension, or 0 if unknown
	// until the first response
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}
