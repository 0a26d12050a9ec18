package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven/mocks"
)

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{Text: "## Start\nGo north.", Source: "guide_1.md", StartIdx: 0, EndIdx: 18, Paragraphs: [2]int{0, 1}},
		{Text: "## Items\nFind the sword.", Source: "guide_1.md", StartIdx: 20, EndIdx: 44, Paragraphs: [2]int{1, 2}},
	}
}

func testVectors() [][]float32 {
	return [][]float32{{1, 0}, {0, 1}}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	records := mocks.NewMockEmbeddingStore()

	require.NoError(t, NewStore(records, nil, nil).Save(ctx, "Soul Blazer", "all-minilm", testChunks(), testVectors()))

	chunks, vectors, err := NewStore(records, nil, nil).Load(ctx, "soul-blazer")
	require.NoError(t, err)
	assert.Equal(t, testChunks(), chunks)
	assert.Equal(t, testVectors(), vectors)
}

func TestStore_SaveRejectsMismatch(t *testing.T) {
	store := NewStore(mocks.NewMockEmbeddingStore(), nil, nil)

	err := store.Save(context.Background(), "game", "m", testChunks(), [][]float32{{1, 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = store.Save(context.Background(), "game", "m", testChunks(), [][]float32{{1, 0}, {1}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = store.Save(context.Background(), "game", "m", nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_SaveFailureLeavesCacheUntouched(t *testing.T) {
	records := mocks.NewMockEmbeddingStore()
	records.SaveErr = errors.New("disk full")
	store := NewStore(records, nil, nil)

	err := store.Save(context.Background(), "game", "m", testChunks(), testVectors())

	assert.Error(t, err)
	assert.Equal(t, 0, store.Cache().Len())
}

func TestStore_LoadNotFound(t *testing.T) {
	store := NewStore(mocks.NewMockEmbeddingStore(), nil, nil)

	_, _, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetIndex(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetIndexServesFromCache(t *testing.T) {
	ctx := context.Background()
	records := mocks.NewMockEmbeddingStore()
	store := NewStore(records, nil, nil)
	require.NoError(t, store.Save(ctx, "soul-blazer", "m", testChunks(), testVectors()))

	// Remove the persisted record; the cached index still answers
	require.NoError(t, records.Delete(ctx, "soul-blazer"))

	idx, err := store.GetIndex(ctx, "Soul Blazer")
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Index.Len())

	assert.True(t, store.Invalidate("soul blazer"))
	_, err = store.GetIndex(ctx, "soul-blazer")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetIndexLoadsAndCaches(t *testing.T) {
	ctx := context.Background()
	records := mocks.NewMockEmbeddingStore()
	require.NoError(t, records.Save(ctx, domain.NewEmbeddingRecord("zelda", "m", testChunks(), testVectors())))

	store := NewStore(records, nil, nil)
	idx, err := store.GetIndex(ctx, "Zelda")

	require.NoError(t, err)
	assert.Equal(t, "zelda", idx.GameID)
	assert.Equal(t, 1, store.Cache().Len())

	exists, err := store.Exists(ctx, "zelda")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewStore(mocks.NewMockEmbeddingStore(), nil, nil)
	require.NoError(t, store.Save(ctx, "zelda", "m", testChunks(), testVectors()))

	require.NoError(t, store.Delete(ctx, "zelda"))

	exists, err := store.Exists(ctx, "zelda")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_InvalidateAllReloadsFromRecords(t *testing.T) {
	ctx := context.Background()
	store := NewStore(mocks.NewMockEmbeddingStore(), nil, nil)
	require.NoError(t, store.Save(ctx, "zelda", "m", testChunks(), testVectors()))
	require.NoError(t, store.Save(ctx, "soul-blazer", "m", testChunks(), testVectors()))
	for _, id := range []string{"zelda", "soul-blazer"} {
		_, err := store.GetIndex(ctx, id)
		require.NoError(t, err)
	}
	require.Equal(t, 2, store.Cache().Len())

	store.InvalidateAll()

	assert.Zero(t, store.Cache().Len())
	idx, err := store.GetIndex(ctx, "zelda")
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Index.Len())
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewStore(mocks.NewMockEmbeddingStore(), nil, nil)
	require.NoError(t, store.Save(ctx, "zelda", "m", testChunks(), testVectors()))
	require.NoError(t, store.Save(ctx, "Soul Blazer", "m", testChunks(), testVectors()))

	ids, err := store.List(ctx)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"zelda", "soul-blazer"}, ids)
}

func TestGameIndex_Search(t *testing.T) {
	ctx := context.Background()
	store := NewStore(mocks.NewMockEmbeddingStore(), nil, nil)
	require.NoError(t, store.Save(ctx, "soul-blazer", "m", testChunks(), testVectors()))

	idx, err := store.GetIndex(ctx, "soul-blazer")
	require.NoError(t, err)

	results, err := idx.Search([]float32{0.9, 0.1}, 5)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Contains(t, results[0].Chunk.Text, "Start")
	assert.Equal(t, 1, results[0].Rank)
	assert.InDelta(t, 1/(1+0.02), results[0].Score, 1e-6)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}
