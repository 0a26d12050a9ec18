package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// GameIndex is the searchable form of one game's embeddings.
// Chunks[i] corresponds to the i-th indexed vector.
type GameIndex struct {
	GameID string
	Model  string
	Chunks []domain.Chunk
	Index  *FlatIndex
}

// Search returns the top k chunks for a query vector, most relevant first
func (g *GameIndex) Search(query []float32, k int) ([]domain.RetrievalResult, error) {
	neighbors, err := g.Index.Search(query, k)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievalResult, len(neighbors))
	for i, n := range neighbors {
		results[i] = domain.RetrievalResult{
			Chunk:    g.Chunks[n.Position],
			Score:    domain.SimilarityScore(n.Distance),
			Distance: n.Distance,
			Rank:     i + 1,
		}
	}
	return results, nil
}

// Store persists embedding records and keeps their indexes cached
type Store struct {
	records driven.EmbeddingStore
	cache   *IndexCache
	logger  *slog.Logger
}

// NewStore creates a vector store over a record backend.
// A nil cache gets a private one.
func NewStore(records driven.EmbeddingStore, cache *IndexCache, logger *slog.Logger) *Store {
	if cache == nil {
		cache = NewIndexCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		records: records,
		cache:   cache,
		logger:  logger,
	}
}

// Cache returns the index cache owned by the store
func (s *Store) Cache() *IndexCache {
	return s.cache
}

// Save persists chunks and vectors for a game and refreshes its cached index
func (s *Store) Save(ctx context.Context, gameID, model string, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunks to save for %q", domain.ErrInvalidInput, gameID)
	}

	record := domain.NewEmbeddingRecord(gameID, model, chunks, vectors)
	if err := record.Validate(); err != nil {
		return err
	}

	idx, err := BuildIndex(record.Embeddings)
	if err != nil {
		return err
	}

	if err := s.records.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save embeddings for %q: %w", record.GameName, err)
	}

	s.cache.Put(&GameIndex{
		GameID: record.GameName,
		Model:  record.ModelName,
		Chunks: record.Chunks,
		Index:  idx,
	})

	s.logger.Info("saved embeddings",
		"game_id", record.GameName,
		"chunks", len(record.Chunks),
		"dim", record.EmbeddingDim)
	return nil
}

// Load returns the persisted chunks and vectors for a game, or domain.ErrNotFound
func (s *Store) Load(ctx context.Context, gameID string) ([]domain.Chunk, [][]float32, error) {
	record, err := s.records.Load(ctx, domain.NormalizeGameID(gameID))
	if err != nil {
		return nil, nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, nil, fmt.Errorf("corrupt embeddings for %q: %w", record.GameName, err)
	}
	return record.Chunks, record.Embeddings, nil
}

// Exists reports whether a record is persisted for the game
func (s *Store) Exists(ctx context.Context, gameID string) (bool, error) {
	if _, ok := s.cache.Get(gameID); ok {
		return true, nil
	}
	return s.records.Exists(ctx, domain.NormalizeGameID(gameID))
}

// GetIndex returns the cached index for a game, loading and caching it from
// the persisted record on a miss.
func (s *Store) GetIndex(ctx context.Context, gameID string) (*GameIndex, error) {
	if idx, ok := s.cache.Get(gameID); ok {
		return idx, nil
	}

	id := domain.NormalizeGameID(gameID)
	record, err := s.records.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt embeddings for %q: %w", id, err)
	}

	index, err := BuildIndex(record.Embeddings)
	if err != nil {
		return nil, err
	}

	idx := &GameIndex{
		GameID: id,
		Model:  record.ModelName,
		Chunks: record.Chunks,
		Index:  index,
	}
	s.cache.Put(idx)

	s.logger.Debug("loaded index", "game_id", id, "chunks", len(record.Chunks))
	return idx, nil
}

// Invalidate drops the cached index for a game; the persisted record stays
func (s *Store) Invalidate(gameID string) bool {
	return s.cache.Invalidate(gameID)
}

// InvalidateAll drops every cached index so the next query reloads from storage
func (s *Store) InvalidateAll() {
	s.cache.InvalidateAll()
}

// Delete removes both the cached index and the persisted record
func (s *Store) Delete(ctx context.Context, gameID string) error {
	s.cache.Invalidate(gameID)
	return s.records.Delete(ctx, domain.NormalizeGameID(gameID))
}

// List returns the ids of every game with persisted embeddings
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.records.List(ctx)
}
