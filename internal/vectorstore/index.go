// Package vectorstore persists per-game chunks and vectors and serves
// brute-force nearest-neighbor search over them.
package vectorstore

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// Neighbor is one search hit: the position of a stored vector and its
// squared Euclidean distance to the query.
type Neighbor struct {
	Position int
	Distance float64
}

// FlatIndex is an exact nearest-neighbor index that scans every vector.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// BuildIndex constructs a flat index over vectors.
// All vectors must share one dimension.
func BuildIndex(vectors [][]float32) (*FlatIndex, error) {
	idx := &FlatIndex{vectors: vectors}
	if len(vectors) == 0 {
		return idx, nil
	}

	idx.dim = len(vectors[0])
	for i, v := range vectors {
		if len(v) != idx.dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, want %d", domain.ErrDimensionMismatch, i, len(v), idx.dim)
		}
	}
	return idx, nil
}

// Len returns the number of indexed vectors
func (i *FlatIndex) Len() int {
	return len(i.vectors)
}

// Dim returns the vector dimension, 0 for an empty index
func (i *FlatIndex) Dim() int {
	return i.dim
}

// Search returns up to k nearest vectors, closest first.
// Equal distances keep index order.
func (i *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if k <= 0 || len(i.vectors) == 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", domain.ErrDimensionMismatch, len(query), i.dim)
	}

	neighbors := make([]Neighbor, len(i.vectors))
	for pos, v := range i.vectors {
		neighbors[pos] = Neighbor{Position: pos, Distance: SquaredL2(query, v)}
	}

	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].Distance < neighbors[b].Distance
	})

	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// SquaredL2 returns the squared Euclidean distance between equal-length vectors
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
