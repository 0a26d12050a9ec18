package driven

import "github.com/custodia-labs/gamefriend-core/internal/core/domain"

// Chunker splits a guide document into overlapping, bounded-size chunks.
// Output must be deterministic for identical input and configuration.
type Chunker interface {
	// Chunk splits text into chunks tagged with source
	Chunk(text, source string) []domain.Chunk

	// Name returns the chunker name for logging
	Name() string
}
