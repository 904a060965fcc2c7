package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PDFQA_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Server.UploadTimeout)
	assert.Equal(t, "uploaded_pdfs", cfg.Storage.UploadDir)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbedModel)
	assert.Equal(t, "tinyllama", cfg.Ollama.ChatModel)
	assert.True(t, cfg.Ollama.ReadinessCheck)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 4, cfg.RAG.TopK)
	assert.Equal(t, "native", cfg.PDF.Extractor)
	assert.Equal(t, "memory", cfg.Index.Backend)
	assert.Equal(t, 768, cfg.Index.Dimension)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PDFQA_SERVER_ADDR", ":9000")
	t.Setenv("PDFQA_RAG_TOP_K", "8")
	t.Setenv("PDFQA_OLLAMA_CHAT_MODEL", "llama3.2")
	t.Setenv("PDFQA_SERVER_ASK_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.RAG.TopK)
	assert.Equal(t, "llama3.2", cfg.Ollama.ChatModel)
	assert.Equal(t, 30*time.Second, cfg.Server.AskTimeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfqa.yaml")
	body := "rag:\n  chunk_size: 500\n  chunk_overlap: 50\nindex:\n  backend: pgvector\n  pg_conn: postgres://localhost/test\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("PDFQA_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "pgvector", cfg.Index.Backend)
	assert.Equal(t, "postgres://localhost/test", cfg.Index.PgConn)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("PDFQA_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"overlap not below size", "PDFQA_RAG_CHUNK_OVERLAP", "1000"},
		{"unknown backend", "PDFQA_INDEX_BACKEND", "faiss"},
		{"unknown extractor", "PDFQA_PDF_EXTRACTOR", "ocr"},
		{"zero top k", "PDFQA_RAG_TOP_K", "0"},
		{"bad log level", "PDFQA_LOG_LEVEL", "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
