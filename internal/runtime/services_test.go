package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// mockEmbeddingService records Close calls and fails health checks on demand
type mockEmbeddingService struct {
	healthCheckErr error
	closed         bool
}

func (m *mockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 384
}

func (m *mockEmbeddingService) Model() string {
	return "test-model"
}

func (m *mockEmbeddingService) HealthCheck(ctx context.Context) error {
	return m.healthCheckErr
}

func (m *mockEmbeddingService) Close() error {
	m.closed = true
	return nil
}

func TestNewServices(t *testing.T) {
	settings := &domain.EmbeddingSettings{Provider: domain.AIProviderOllama}
	s := NewServices(settings)

	if s.Settings() != settings {
		t.Error("expected settings to be kept")
	}
	if s.EmbeddingService() != nil {
		t.Error("expected nil embedding service")
	}
	if s.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable")
	}
}

func TestServices_SetEmbeddingService(t *testing.T) {
	s := NewServices(nil)
	svc := &mockEmbeddingService{}

	s.SetEmbeddingService(svc)

	if s.EmbeddingService() != svc {
		t.Error("expected service to be set")
	}
	if !s.EmbeddingAvailable() {
		t.Error("expected embedding to be available")
	}

	// Setting the same service again must not close it
	s.SetEmbeddingService(svc)
	if svc.closed {
		t.Error("expected same service to stay open")
	}
}

func TestServices_ReplaceService_ClosesOld(t *testing.T) {
	s := NewServices(nil)
	old := &mockEmbeddingService{}
	s.SetEmbeddingService(old)

	s.SetEmbeddingService(&mockEmbeddingService{})

	if !old.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_ValidateAndSetEmbedding(t *testing.T) {
	s := NewServices(nil)
	settings := &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm"}

	healthy := &mockEmbeddingService{}
	if err := s.ValidateAndSetEmbedding(context.Background(), settings, healthy); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.EmbeddingService() != healthy || s.Settings() != settings {
		t.Error("expected healthy service and its settings to be installed")
	}

	unhealthy := &mockEmbeddingService{healthCheckErr: errors.New("connection refused")}
	if err := s.ValidateAndSetEmbedding(context.Background(), nil, unhealthy); err == nil {
		t.Error("expected health check error")
	}
	if !unhealthy.closed {
		t.Error("expected rejected service to be closed")
	}
	if s.EmbeddingService() != healthy {
		t.Error("expected previous service to stay installed")
	}
}

func TestServices_ValidateAndSetEmbedding_Disable(t *testing.T) {
	old := &mockEmbeddingService{}
	s := NewServices(nil)
	s.SetEmbeddingService(old)
	settings := &domain.EmbeddingSettings{}

	if err := s.ValidateAndSetEmbedding(context.Background(), settings, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.EmbeddingAvailable() {
		t.Error("expected embedding to be disabled")
	}
	if !old.closed {
		t.Error("expected old service to be closed")
	}
	if s.Settings() != settings {
		t.Error("expected settings to follow the disabled service")
	}
}

func TestServices_Close(t *testing.T) {
	s := NewServices(nil)
	svc := &mockEmbeddingService{}
	s.SetEmbeddingService(svc)

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !svc.closed {
		t.Error("expected service to be closed")
	}
	if s.EmbeddingService() != nil {
		t.Error("expected nil service after close")
	}
}
