package store

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/katakuxiko/pdfqa/internal/model"
)

// MemoryBuilder builds brute-force in-process indexes.
type MemoryBuilder struct{}

func (MemoryBuilder) Name() string { return "memory" }

func (MemoryBuilder) Build(_ context.Context, chunks []model.Chunk, vectors [][]float32) (Index, error) {
	dim, err := checkVectors(chunks, vectors)
	if err != nil {
		return nil, err
	}
	idx := &MemoryIndex{
		dim:     dim,
		chunks:  make([]model.Chunk, len(chunks)),
		vectors: make([][]float32, len(vectors)),
	}
	copy(idx.chunks, chunks)
	for i, v := range vectors {
		idx.vectors[i] = append([]float32(nil), v...)
	}
	return idx, nil
}

// MemoryIndex is never mutated after Build, so concurrent searches need no
// locking.
type MemoryIndex struct {
	dim     int
	chunks  []model.Chunk
	vectors [][]float32
}

func (m *MemoryIndex) Len() int { return len(m.chunks) }

func (m *MemoryIndex) Close(context.Context) error { return nil }

func (m *MemoryIndex) Search(ctx context.Context, vec []float32, k int) ([]model.ScoredChunk, error) {
	if len(vec) != m.dim {
		return nil, fmt.Errorf("%w: query has %d, index %d", ErrDimensionMismatch, len(vec), m.dim)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hits := make([]model.ScoredChunk, len(m.chunks))
	for i, v := range m.vectors {
		hits[i] = model.ScoredChunk{Chunk: m.chunks[i], Distance: l2(vec, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits[:topK(k, len(hits))], nil
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
