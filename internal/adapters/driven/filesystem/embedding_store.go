package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EmbeddingStore = (*EmbeddingStore)(nil)

const recordSuffix = "_embeddings.json"

// EmbeddingStore keeps one JSON record per game at {dir}/{game}_embeddings.json
type EmbeddingStore struct {
	dir string
}

// NewEmbeddingStore creates a store writing into dir
func NewEmbeddingStore(dir string) *EmbeddingStore {
	return &EmbeddingStore{dir: dir}
}

// Path returns the record file for a game
func (s *EmbeddingStore) Path(gameID string) string {
	return filepath.Join(s.dir, domain.NormalizeGameID(gameID)+recordSuffix)
}

// Save writes the record through a temporary file so readers never see
// a half-written record.
func (s *EmbeddingStore) Save(ctx context.Context, record *domain.EmbeddingRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create embeddings dir: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal embeddings: %w", err)
	}

	path := s.Path(record.GameName)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*"+recordSuffix)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write embeddings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write embeddings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace embeddings: %w", err)
	}
	return nil
}

// Load reads the record for a game, or returns domain.ErrNotFound
func (s *EmbeddingStore) Load(ctx context.Context, gameID string) (*domain.EmbeddingRecord, error) {
	data, err := os.ReadFile(s.Path(gameID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("embeddings for %q: %w", gameID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read embeddings: %w", err)
	}

	var record domain.EmbeddingRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse embeddings for %q: %w", gameID, err)
	}
	return &record, nil
}

// Exists reports whether a record file exists for the game
func (s *EmbeddingStore) Exists(ctx context.Context, gameID string) (bool, error) {
	_, err := os.Stat(s.Path(gameID))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat embeddings: %w", err)
	}
	return true, nil
}

// Delete removes the record for a game
func (s *EmbeddingStore) Delete(ctx context.Context, gameID string) error {
	if err := os.Remove(s.Path(gameID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete embeddings: %w", err)
	}
	return nil
}

// List returns the ids of every stored game, sorted
func (s *EmbeddingStore) List(ctx context.Context) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*"+recordSuffix))
	if err != nil {
		return nil, fmt.Errorf("glob embeddings: %w", err)
	}

	ids := []string{}
	for _, p := range paths {
		name := filepath.Base(p)
		if strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, recordSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}
