package service

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/katakuxiko/pdfqa/internal/metrics"
	"github.com/katakuxiko/pdfqa/internal/model"
	"github.com/katakuxiko/pdfqa/internal/pdf"
	"github.com/katakuxiko/pdfqa/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fakeDim = 64

// fakeEmbedder hashes words into a bag-of-words vector so texts sharing words
// land close together.
type fakeEmbedder struct {
	calls atomic.Int32
	err   error
}

func (f *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, fakeDim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!")
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%fakeDim]++
	}
	return v
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

// fakeGenerator answers with the retrieved context so tests can see what
// retrieval returned.
type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	chunks []model.Chunk
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, question string, chunks []model.Chunk) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.chunks = chunks
	if f.err != nil {
		return "", f.err
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, " | "), nil
}

func (f *fakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fileExtractor treats the stored bytes as a one-page document. Content
// starting with "CORRUPT" fails.
type fileExtractor struct{}

func (fileExtractor) Extract(_ context.Context, path string) ([]model.PageText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(string(data), "CORRUPT") {
		return nil, errors.New("not a pdf")
	}
	return []model.PageText{{Page: 1, Text: string(data)}}, nil
}

type fakeProber struct{ err error }

func (p fakeProber) Ping(context.Context) error { return p.err }

type failingBuilder struct{}

func (failingBuilder) Name() string { return "failing" }

func (failingBuilder) Build(context.Context, []model.Chunk, [][]float32) (store.Index, error) {
	return nil, errors.New("out of memory")
}

type fixture struct {
	svc  *RAGService
	emb  *fakeEmbedder
	gen  *fakeGenerator
	docs *store.DocumentStore
}

func newFixture(t *testing.T, mutate ...func(*Deps)) *fixture {
	t.Helper()
	docs, err := store.NewDocumentStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	f := &fixture{emb: &fakeEmbedder{}, gen: &fakeGenerator{}, docs: docs}
	d := Deps{
		Documents: docs,
		Extractor: fileExtractor{},
		Splitter:  pdf.NewSplitter(1000, 200),
		Embedder:  f.emb,
		Generator: f.gen,
		Builder:   store.MemoryBuilder{},
		Log:       zap.NewNop(),
		Metrics:   metrics.New(),
	}
	for _, m := range mutate {
		m(&d)
	}
	f.svc = NewRAGService(d)
	return f
}
