package mocks

import (
	"context"
	"sync"
)

// MockIndexInvalidator records published invalidations
type MockIndexInvalidator struct {
	mu        sync.Mutex
	published []string
	handlers  []func(gameID string)
}

// NewMockIndexInvalidator creates a new MockIndexInvalidator
func NewMockIndexInvalidator() *MockIndexInvalidator {
	return &MockIndexInvalidator{}
}

func (m *MockIndexInvalidator) Publish(ctx context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, gameID)
	return nil
}

// Subscribe registers fn for Deliver and blocks until ctx is done
func (m *MockIndexInvalidator) Subscribe(ctx context.Context, fn func(gameID string)) error {
	m.mu.Lock()
	m.handlers = append(m.handlers, fn)
	m.mu.Unlock()
	<-ctx.Done()
	return nil
}

// Deliver simulates an invalidation from a peer instance
func (m *MockIndexInvalidator) Deliver(gameID string) {
	m.mu.Lock()
	handlers := append([]func(string){}, m.handlers...)
	m.mu.Unlock()
	for _, fn := range handlers {
		fn(gameID)
	}
}

// Subscribers returns how many Subscribe calls are active or finished
func (m *MockIndexInvalidator) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}

// Published returns the game ids published so far
func (m *MockIndexInvalidator) Published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.published))
	copy(out, m.published)
	return out
}
