package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates no persisted index or guide exists for a game
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrContentNotFound indicates a page has no recognizable guide-content region
	ErrContentNotFound = errors.New("guide content not found")

	// ErrEmptyContent indicates the content region was found but has no text
	ErrEmptyContent = errors.New("guide content is empty")

	// ErrGenerationFailed indicates extraction or embedding failed mid-batch
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationInProgress indicates another instance holds the generation lock for a game
	ErrGenerationInProgress = errors.New("generation already in progress")

	// ErrDimensionMismatch indicates vectors of differing length within one game
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidProvider indicates an unknown embedding provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the embedding service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
