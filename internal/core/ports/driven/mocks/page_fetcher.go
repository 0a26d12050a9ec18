package mocks

import (
	"context"
	"fmt"
	"sync"
)

// MockPageFetcher serves scripted pages keyed by URL and records every fetch
type MockPageFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	errs    map[string]error
	fetched []string
}

// NewMockPageFetcher creates a new MockPageFetcher
func NewMockPageFetcher() *MockPageFetcher {
	return &MockPageFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

// SetPage scripts the body returned for url
func (m *MockPageFetcher) SetPage(url, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[url] = body
}

// SetError makes fetching url fail with err
func (m *MockPageFetcher) SetError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[url] = err
}

func (m *MockPageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetched = append(m.fetched, url)
	if err, ok := m.errs[url]; ok {
		return "", err
	}
	body, ok := m.pages[url]
	if !ok {
		return "", fmt.Errorf("GET %s: status 404", url)
	}
	return body, nil
}

// Fetched returns the URLs requested so far, in order
func (m *MockPageFetcher) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.fetched))
	copy(out, m.fetched)
	return out
}
