package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// MockEmbeddingStore is an in-memory EmbeddingStore for testing
type MockEmbeddingStore struct {
	mu      sync.RWMutex
	records map[string]*domain.EmbeddingRecord
	saves   int

	// SaveErr is returned by Save when set
	SaveErr error
}

// NewMockEmbeddingStore creates a new MockEmbeddingStore
func NewMockEmbeddingStore() *MockEmbeddingStore {
	return &MockEmbeddingStore{
		records: make(map[string]*domain.EmbeddingRecord),
	}
}

func (m *MockEmbeddingStore) Save(ctx context.Context, record *domain.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.saves++
	m.records[domain.NormalizeGameID(record.GameName)] = record
	return nil
}

func (m *MockEmbeddingStore) Load(ctx context.Context, gameID string) (*domain.EmbeddingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[domain.NormalizeGameID(gameID)]
	if !ok {
		return nil, fmt.Errorf("embeddings for %q: %w", gameID, domain.ErrNotFound)
	}
	return rec, nil
}

func (m *MockEmbeddingStore) Exists(ctx context.Context, gameID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[domain.NormalizeGameID(gameID)]
	return ok, nil
}

func (m *MockEmbeddingStore) Delete(ctx context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, domain.NormalizeGameID(gameID))
	return nil
}

func (m *MockEmbeddingStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Saves returns how many successful Save calls were made
func (m *MockEmbeddingStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
