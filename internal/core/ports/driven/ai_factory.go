package driven

import (
	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// AIServiceFactory creates embedding services based on configuration
type AIServiceFactory interface {
	// CreateEmbeddingService creates an embedding service from settings
	// Returns nil, nil if settings are not configured
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)
}
