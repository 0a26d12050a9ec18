// Package runtime holds the process-wide services that can be swapped
// while the server is running.
package runtime

import (
	"context"
	"sync"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// Services holds the live embedding service.
// The service may be nil until configured. Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	settings         *domain.EmbeddingSettings
	embeddingService driven.EmbeddingService
}

// NewServices creates a new Services registry
func NewServices(settings *domain.EmbeddingSettings) *Services {
	return &Services{
		settings: settings,
	}
}

// Settings returns the settings the current service was built from
func (s *Services) Settings() *domain.EmbeddingSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// EmbeddingAvailable reports whether an embedding service is configured
func (s *Services) EmbeddingAvailable() bool {
	return s.EmbeddingService() != nil
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil && s.embeddingService != svc {
		_ = s.embeddingService.Close()
	}
	s.embeddingService = svc
}

// ValidateAndSetEmbedding installs svc and the settings it was built from
// once svc passes a health check. A nil svc disables embedding. A failing
// svc is closed and the current service stays installed.
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, settings *domain.EmbeddingSettings, svc driven.EmbeddingService) error {
	if svc != nil {
		if err := svc.HealthCheck(ctx); err != nil {
			_ = svc.Close()
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.embeddingService != nil && s.embeddingService != svc {
		_ = s.embeddingService.Close()
	}
	s.embeddingService = svc
	s.settings = settings
	return nil
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		err := s.embeddingService.Close()
		s.embeddingService = nil
		return err
	}
	return nil
}
