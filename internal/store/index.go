package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/katakuxiko/pdfqa/internal/model"
)

// DefaultTopK is the number of chunks returned when a caller passes k <= 0.
const DefaultTopK = 4

var (
	ErrNoChunks          = errors.New("no chunks to index")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Index is an immutable snapshot of embedded chunks.
type Index interface {
	// Search returns up to k chunks ordered by ascending L2 distance to vec.
	Search(ctx context.Context, vec []float32, k int) ([]model.ScoredChunk, error)
	Len() int
	// Close releases backend resources. The index must not be searched after.
	Close(ctx context.Context) error
}

// IndexBuilder builds a fresh Index from chunks and their vectors.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []model.Chunk, vectors [][]float32) (Index, error)
	Name() string
}

// checkVectors verifies there is one non-empty vector per chunk and that all
// share a dimension, which it returns.
func checkVectors(chunks []model.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) == 0 {
		return 0, ErrNoChunks
	}
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("%d chunks but %d vectors", len(chunks), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return dim, nil
}

func topK(k, n int) int {
	if k <= 0 {
		k = DefaultTopK
	}
	if k > n {
		k = n
	}
	return k
}
