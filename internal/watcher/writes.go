package watcher

import (
	"path/filepath"
	"sync"
	"time"
)

// DefaultIgnoreWindow covers the debounce plus the time a download takes to
// regenerate the game it just saved.
const DefaultIgnoreWindow = 30 * time.Second

// WriteLog remembers guide files this process wrote and indexed itself, so
// the watcher does not regenerate the same game a second time.
type WriteLog struct {
	mu      sync.Mutex
	window  time.Duration
	written map[string]time.Time
	now     func() time.Time
}

// NewWriteLog creates a log whose entries expire after window
func NewWriteLog(window time.Duration) *WriteLog {
	if window <= 0 {
		window = DefaultIgnoreWindow
	}
	return &WriteLog{
		window:  window,
		written: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Record marks path as written by this process
func (l *WriteLog) Record(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.written[logKey(path)] = l.now()
}

// Recent reports whether path was recorded within the window. Expired
// entries are dropped.
func (l *WriteLog) Recent(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for p, at := range l.written {
		if now.Sub(at) > l.window {
			delete(l.written, p)
		}
	}
	_, ok := l.written[logKey(path)]
	return ok
}

func logKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
