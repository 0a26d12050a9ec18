// Package watcher regenerates a game's index when its guide files change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driving"
)

// DefaultDebounce collapses the burst of writes a download produces
const DefaultDebounce = 2 * time.Second

// Config holds watcher dependencies
type Config struct {
	// Root is the guides directory laid out as {platform}/{game}/guide_*.md
	Root     string
	Indexer  driving.IndexService
	Debounce time.Duration

	// Ignore lists files this process wrote and already indexed (optional)
	Ignore *WriteLog

	Logger *slog.Logger
}

// GuideWatcher watches the guide tree and regenerates one game per burst of
// changes to its guide files.
type GuideWatcher struct {
	root     string
	indexer  driving.IndexService
	debounce time.Duration
	ignore   *WriteLog
	logger   *slog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]map[string]struct{}
	stopped bool
	wg      sync.WaitGroup
}

// New creates a GuideWatcher
func New(cfg Config) *GuideWatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &GuideWatcher{
		root:     filepath.Clean(cfg.Root),
		indexer:  cfg.Indexer,
		debounce: debounce,
		ignore:   cfg.Ignore,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
		pending:  make(map[string]map[string]struct{}),
	}
}

// Run watches until ctx is cancelled. Pending regenerations are abandoned on
// shutdown; ones already running are waited for.
func (w *GuideWatcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("create guides dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("watching guides", "root", w.root)

	defer w.wg.Wait()
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *GuideWatcher) handle(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// New platform and game directories need their own watch.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if depth(w.root, event.Name) <= 2 {
				if err := w.addTree(fw, event.Name); err != nil {
					w.logger.Warn("failed to watch directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}

	if game, ok := GameForPath(w.root, event.Name); ok {
		w.schedule(ctx, game, event.Name)
	}
}

// addTree watches dir and its platform/game subdirectories
func (w *GuideWatcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if depth(w.root, path) > 2 {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// schedule (re)starts the debounce timer for game and notes the changed path
func (w *GuideWatcher) schedule(ctx context.Context, game, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.pending[game] == nil {
		w.pending[game] = make(map[string]struct{})
	}
	w.pending[game][path] = struct{}{}

	if t, ok := w.timers[game]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[game] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, game)
		paths := w.pending[game]
		delete(w.pending, game)
		if w.stopped || ctx.Err() != nil {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		if !w.changedElsewhere(paths) {
			w.logger.Debug("skipping regeneration for guides this process wrote", "game", game)
			return
		}

		summary, err := w.indexer.Generate(ctx, game)
		if err != nil {
			w.logger.Error("failed to regenerate after guide change", "game", game, "error", err)
			return
		}
		w.logger.Info("regenerated after guide change", "game_id", summary.GameID, "chunks", summary.Chunks)
	})
}

// changedElsewhere reports whether any path was not written by this process
func (w *GuideWatcher) changedElsewhere(paths map[string]struct{}) bool {
	if w.ignore == nil {
		return true
	}
	for p := range paths {
		if !w.ignore.Recent(p) {
			return true
		}
	}
	return false
}

func (w *GuideWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for game, t := range w.timers {
		t.Stop()
		delete(w.timers, game)
	}
	clear(w.pending)
}

// GameForPath returns the game directory name for a guide file at
// {root}/{platform}/{game}/guide_*.md
func GameForPath(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 || parts[0] == ".." {
		return "", false
	}
	if ok, _ := filepath.Match("guide_*.md", parts[2]); !ok {
		return "", false
	}
	return parts[1], true
}

// depth counts path components below root; root itself is 0
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(filepath.ToSlash(rel), "/"))
}
