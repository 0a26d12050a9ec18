package services

import (
	"strings"
	"testing"

	"github.com/custodia-labs/gamefriend-core/internal/chunker"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driving"
	"github.com/custodia-labs/gamefriend-core/internal/runtime"
	"github.com/custodia-labs/gamefriend-core/internal/vectorstore"
)

const walkthrough = "## Start\nGo north.\n\n## Items\nFind the sword."

// pipeline wires the real chunker, embedder, store and services over mocks
type pipeline struct {
	guides      *mocks.MockGuideStore
	records     *mocks.MockEmbeddingStore
	embedding   *mocks.MockEmbeddingService
	lock        *mocks.MockDistributedLock
	invalidator *mocks.MockIndexInvalidator
	store       *vectorstore.Store
	embedder    *BatchEmbedder
	indexer     *Indexer
	retrieval   driving.RetrievalService
}

func newPipeline(t *testing.T, chunkSize int) *pipeline {
	t.Helper()

	p := &pipeline{
		guides:      mocks.NewMockGuideStore(),
		records:     mocks.NewMockEmbeddingStore(),
		embedding:   mocks.NewMockEmbeddingService(),
		lock:        mocks.NewMockDistributedLock(),
		invalidator: mocks.NewMockIndexInvalidator(),
	}

	rt := runtime.NewServices(nil)
	rt.SetEmbeddingService(p.embedding)

	p.store = vectorstore.NewStore(p.records, nil, nil)
	p.embedder = NewBatchEmbedder(BatchEmbedderConfig{Services: rt, BatchSize: 2})
	p.indexer = NewIndexer(IndexerConfig{
		Guides:      p.guides,
		Chunker:     chunker.NewChunker(chunker.ChunkConfig{ChunkSize: chunkSize, ChunkOverlap: 0, Policy: chunker.SizeChars}),
		Embedder:    p.embedder,
		Store:       p.store,
		Lock:        p.lock,
		Invalidator: p.invalidator,
	})
	p.retrieval = NewRetrievalService(RetrievalConfig{
		Store:       p.store,
		Embedder:    p.embedder,
		Guides:      p.guides,
		Indexer:     p.indexer,
		Invalidator: p.invalidator,
	})
	return p
}

// sectionVectors maps guide sections onto fixed axes; anything else is a
// query leaning towards the first section.
func sectionVectors(text string) []float32 {
	switch {
	case strings.Contains(text, "Start"):
		return []float32{1, 0}
	case strings.Contains(text, "Items"):
		return []float32{0, 1}
	default:
		return []float32{0.9, 0.1}
	}
}
