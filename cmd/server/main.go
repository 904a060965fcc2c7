package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/katakuxiko/pdfqa/internal/api"
	"github.com/katakuxiko/pdfqa/internal/config"
	"github.com/katakuxiko/pdfqa/internal/logger"
	"github.com/katakuxiko/pdfqa/internal/metrics"
	"github.com/katakuxiko/pdfqa/internal/pdf"
	"github.com/katakuxiko/pdfqa/internal/service"
	"github.com/katakuxiko/pdfqa/internal/store"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// store
	docs, err := store.NewDocumentStore(cfg.Storage.UploadDir, log.Named("documents"))
	if err != nil {
		return err
	}
	if prev, ok, err := docs.Current(); err == nil && ok {
		log.Info("previous upload on disk is not indexed until uploaded again", zap.String("file", prev.Name))
	}
	builder, closeBuilder, err := newIndexBuilder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBuilder()

	extractor, err := pdf.NewExtractor(cfg.PDF.Extractor)
	if err != nil {
		return err
	}

	// services
	m := metrics.New()
	llm := service.NewLLMClient(cfg)
	deps := service.Deps{
		Documents: docs,
		Extractor: extractor,
		Splitter:  pdf.NewSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		Embedder:  llm,
		Generator: llm,
		Builder:   builder,
		TopK:      cfg.RAG.TopK,
		Log:       log.Named("rag"),
		Metrics:   m,
	}
	if cfg.Ollama.ReadinessCheck {
		deps.Prober = llm
	}
	rag := service.NewRAGService(deps)
	defer rag.Close()

	// api
	app := api.NewApp(cfg.Server, log)
	h := api.NewHandler(rag, llm, log.Named("api"), cfg.Server.UploadTimeout, cfg.Server.AskTimeout)
	api.RegisterRoutes(app, h, cfg.Server, m, log.Named("http"))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started",
			zap.String("addr", cfg.Server.Addr),
			zap.String("backend", builder.Name()),
			zap.String("embed_model", cfg.Ollama.EmbedModel),
			zap.String("chat_model", cfg.Ollama.ChatModel))
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

func newIndexBuilder(ctx context.Context, cfg *config.Config) (store.IndexBuilder, func(), error) {
	switch cfg.Index.Backend {
	case "pgvector":
		pg, err := store.OpenPgStore(ctx, cfg.Index.PgConn, cfg.Index.Dimension)
		if err != nil {
			return nil, nil, fmt.Errorf("open pgvector store: %w", err)
		}
		return pg, func() { _ = pg.Close() }, nil
	default:
		return store.MemoryBuilder{}, func() {}, nil
	}
}
