package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/katakuxiko/pdfqa/internal/metrics"
	"github.com/katakuxiko/pdfqa/internal/model"
	"github.com/katakuxiko/pdfqa/internal/pdf"
	"github.com/katakuxiko/pdfqa/internal/store"
	"github.com/katakuxiko/pdfqa/internal/util"
	"go.uber.org/zap"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Generator interface {
	Generate(ctx context.Context, question string, chunks []model.Chunk) (string, error)
}

// Prober reports whether the model backend can serve requests.
type Prober interface {
	Ping(ctx context.Context) error
}

// Deps wires a RAGService. Prober may be nil to skip the readiness check.
type Deps struct {
	Documents *store.DocumentStore
	Extractor pdf.Extractor
	Splitter  *pdf.Splitter
	Embedder  Embedder
	Generator Generator
	Prober    Prober
	Builder   store.IndexBuilder
	TopK      int
	Log       *zap.Logger
	Metrics   *metrics.Metrics
}

// session is the state published after a successful upload. Searches hold
// mu for reading; the upload that replaces it takes mu to close the index.
type session struct {
	mu     sync.RWMutex
	closed bool

	doc        model.Document
	index      store.Index
	pages      int
	readySince time.Time
}

type UploadResult struct {
	Document model.Document
	Pages    int
	Chunks   int
}

// RAGService owns the single document slot and its index. Uploads are
// serialised; questions run concurrently against whichever index was last
// published and never see one that is half built.
type RAGService struct {
	Deps

	uploadMu sync.Mutex
	current  atomic.Pointer[session]
}

func NewRAGService(d Deps) *RAGService {
	if d.TopK <= 0 {
		d.TopK = store.DefaultTopK
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	return &RAGService{Deps: d}
}

// Upload stores the document, indexes it and makes it the active one. On any
// error the previously active index stays in place.
func (s *RAGService) Upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	res, err := s.upload(ctx, filename, r)
	s.Metrics.Upload(Result(err))
	if err != nil {
		s.Log.Error("upload failed",
			zap.String("file", filename),
			zap.String("result", Result(err)),
			zap.Error(err))
		return UploadResult{}, err
	}
	s.Log.Info("document indexed",
		zap.String("file", res.Document.Name),
		zap.String("id", res.Document.ID),
		zap.Int("pages", res.Pages),
		zap.Int("chunks", res.Chunks),
		zap.String("backend", s.Builder.Name()))
	return res, nil
}

func (s *RAGService) upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	if s.Prober != nil {
		if err := s.Prober.Ping(ctx); err != nil {
			return UploadResult{}, fmt.Errorf("%w: %w", ErrServiceUnready, err)
		}
	}

	done := s.Metrics.Stage("store")
	doc, err := s.Documents.Replace(filename, r)
	done()
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %w", ErrDocumentStore, err)
	}

	done = s.Metrics.Stage("extract")
	pages, err := s.Extractor.Extract(ctx, doc.Path)
	done()
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %w", ErrBadDocument, err)
	}
	if !pdf.HasText(pages) {
		return UploadResult{}, fmt.Errorf("%w: no text in %d pages", ErrBadDocument, len(pages))
	}

	done = s.Metrics.Stage("split")
	chunks := s.Splitter.SplitPages(doc.ID, pages)
	done()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	done = s.Metrics.Stage("embed")
	vectors, err := s.Embedder.EmbedBatch(ctx, texts)
	done()
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}

	done = s.Metrics.Stage("index")
	idx, err := s.Builder.Build(ctx, chunks, vectors)
	done()
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %w", ErrIndexBuildFailed, err)
	}

	next := &session{doc: doc, index: idx, pages: len(pages), readySince: time.Now().UTC()}
	if prev := s.current.Swap(next); prev != nil {
		s.retire(prev)
	}
	s.Metrics.IndexChunks(idx.Len())

	return UploadResult{Document: doc, Pages: len(pages), Chunks: idx.Len()}, nil
}

// retire waits for in-flight searches on prev, then closes its index.
func (s *RAGService) retire(prev *session) {
	prev.mu.Lock()
	defer prev.mu.Unlock()
	prev.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := prev.index.Close(ctx); err != nil {
		s.Log.Warn("close previous index", zap.String("id", prev.doc.ID), zap.Error(err))
	}
}

// acquire returns the active session read-locked, or nil before the first
// upload. The caller must RUnlock it.
func (s *RAGService) acquire() *session {
	for {
		sess := s.current.Load()
		if sess == nil {
			return nil
		}
		sess.mu.RLock()
		if !sess.closed {
			return sess
		}
		sess.mu.RUnlock()
	}
}

// Ask answers question from the active document. Failures past input
// validation are logged and collapsed into ErrGenerationFailed.
func (s *RAGService) Ask(ctx context.Context, question string) (string, error) {
	answer, err := s.ask(ctx, question)
	s.Metrics.Question(Result(err))
	if errors.Is(err, ErrGenerationFailed) {
		s.Log.Error("answer failed",
			zap.String("question", util.TruncateRunes(question, 200)),
			zap.Error(err))
	}
	return answer, err
}

func (s *RAGService) ask(ctx context.Context, question string) (string, error) {
	if s.current.Load() == nil {
		return "", ErrNoDocument
	}
	q := strings.TrimSpace(question)
	if q == "" {
		return "", ErrEmptyQuestion
	}

	done := s.Metrics.Stage("embed_query")
	vec, err := s.Embedder.Embed(ctx, q)
	done()
	if err != nil {
		return "", fmt.Errorf("%w: embed question: %w", ErrGenerationFailed, err)
	}

	sess := s.acquire()
	if sess == nil {
		return "", ErrNoDocument
	}
	done = s.Metrics.Stage("search")
	hits, err := sess.index.Search(ctx, vec, s.TopK)
	sess.mu.RUnlock()
	done()
	if err != nil {
		return "", fmt.Errorf("%w: search: %w", ErrGenerationFailed, err)
	}

	chunks := make([]model.Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = h.Chunk
	}

	done = s.Metrics.Stage("generate")
	answer, err := s.Generator.Generate(ctx, q, chunks)
	done()
	if err != nil {
		return "", fmt.Errorf("%w: generate: %w", ErrGenerationFailed, err)
	}
	return answer, nil
}

func (s *RAGService) Status() model.Status {
	st := model.Status{State: model.StateNoDocument, Backend: s.Builder.Name()}
	sess := s.current.Load()
	if sess == nil {
		return st
	}
	since := sess.readySince
	st.State = model.StateReady
	st.Document = sess.doc.Name
	st.Pages = sess.pages
	st.Chunks = sess.index.Len()
	st.ReadySince = &since
	return st
}

// Close releases the active index.
func (s *RAGService) Close() {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()
	if prev := s.current.Swap(nil); prev != nil {
		s.retire(prev)
	}
}
