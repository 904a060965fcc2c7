package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/katakuxiko/pdfqa/internal/config"
	"github.com/katakuxiko/pdfqa/internal/model"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

const promptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`

// LLMClient talks to Ollama through its OpenAI compatible API. The same
// embedding model serves chunks and questions.
type LLMClient struct {
	client      *openai.Client
	embedName   string
	chatName    string
	temperature float32
	batchSize   int
	workers     int
}

// NewLLMClient builds a client from the ollama and rag sections of cfg.
func NewLLMClient(cfg *config.Config) *LLMClient {
	oaiCfg := openai.DefaultConfig(cfg.Ollama.APIKey)
	oaiCfg.BaseURL = cfg.Ollama.BaseURL

	return &LLMClient{
		client:      openai.NewClientWithConfig(oaiCfg),
		embedName:   cfg.Ollama.EmbedModel,
		chatName:    cfg.Ollama.ChatModel,
		temperature: cfg.Ollama.Temperature,
		batchSize:   max(1, cfg.RAG.EmbedBatchSize),
		workers:     max(1, cfg.RAG.EmbedWorkers),
	}
}

// Embed returns the embedding of a single text.
func (l *LLMClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := l.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in batches of batchSize with at most workers
// requests in flight. The result is aligned with texts.
func (l *LLMClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for start := 0; start < len(texts); start += l.batchSize {
		start, end := start, min(start+l.batchSize, len(texts))
		g.Go(func() error {
			vecs, err := l.embed(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("texts %d-%d: %w", start, end-1, err)
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *LLMClient) embed(ctx context.Context, input []string) ([][]float32, error) {
	resp, err := l.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(l.embedName),
		Input: input,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(input))
	}

	out := make([][]float32, len(input))
	for i, d := range resp.Data {
		pos := i
		if d.Index >= 0 && d.Index < len(out) {
			pos = d.Index
		}
		if len(d.Embedding) == 0 {
			return nil, errors.New("empty embedding returned")
		}
		out[pos] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return out, nil
}

// Generate answers question from the given chunks in one blocking call.
func (l *LLMClient) Generate(ctx context.Context, question string, chunks []model.Chunk) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.chatName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(question, chunks)},
		},
		Temperature: l.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildPrompt stuffs every chunk, separated by blank lines, ahead of the question.
func BuildPrompt(question string, chunks []model.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return fmt.Sprintf(promptTemplate, strings.Join(parts, "\n\n"), question)
}

// ListModels returns the models the backend has pulled.
func (l *LLMClient) ListModels(ctx context.Context) ([]openai.Model, error) {
	resp, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// Ping checks that the backend answers and has both configured models.
// Ollama reports pulled models with a tag, e.g. "tinyllama:latest".
func (l *LLMClient) Ping(ctx context.Context) error {
	models, err := l.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, want := range []string{l.embedName, l.chatName} {
		if !hasModel(models, want) {
			return fmt.Errorf("model %q is not available", want)
		}
	}
	return nil
}

func hasModel(models []openai.Model, name string) bool {
	for _, m := range models {
		if m.ID == name || strings.HasPrefix(m.ID, name+":") {
			return true
		}
	}
	return false
}
