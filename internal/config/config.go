package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "PDFQA"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Ollama  OllamaConfig  `mapstructure:"ollama"`
	RAG     RAGConfig     `mapstructure:"rag"`
	PDF     PDFConfig     `mapstructure:"pdf"`
	Index   IndexConfig   `mapstructure:"index"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	BodyLimitMB     int           `mapstructure:"body_limit_mb" validate:"gt=0"`
	CORSOrigins     string        `mapstructure:"cors_origins" validate:"required"`
	CORSCredentials bool          `mapstructure:"cors_credentials"`
	UploadTimeout   time.Duration `mapstructure:"upload_timeout" validate:"gt=0"`
	AskTimeout      time.Duration `mapstructure:"ask_timeout" validate:"gt=0"`
}

type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir" validate:"required"`
}

// OllamaConfig points at the OpenAI compatible endpoint of a local Ollama.
type OllamaConfig struct {
	BaseURL        string  `mapstructure:"base_url" validate:"required,url"`
	APIKey         string  `mapstructure:"api_key"`
	EmbedModel     string  `mapstructure:"embed_model" validate:"required"`
	ChatModel      string  `mapstructure:"chat_model" validate:"required"`
	Temperature    float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	ReadinessCheck bool    `mapstructure:"readiness_check"`
}

type RAGConfig struct {
	ChunkSize      int `mapstructure:"chunk_size" validate:"gt=0"`
	ChunkOverlap   int `mapstructure:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	TopK           int `mapstructure:"top_k" validate:"gt=0"`
	EmbedBatchSize int `mapstructure:"embed_batch_size" validate:"gt=0"`
	EmbedWorkers   int `mapstructure:"embed_workers" validate:"gt=0"`
}

type PDFConfig struct {
	Extractor string `mapstructure:"extractor" validate:"oneof=native pdftotext"`
}

type IndexConfig struct {
	Backend   string `mapstructure:"backend" validate:"oneof=memory pgvector"`
	PgConn    string `mapstructure:"pg_conn" validate:"required_if=Backend pgvector"`
	Dimension int    `mapstructure:"dimension" validate:"gt=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Env   string `mapstructure:"env" validate:"oneof=development production"`
}

// Load reads defaults, then an optional YAML file named by PDFQA_CONFIG_FILE,
// then PDFQA_* environment variables (PDFQA_RAG_TOP_K -> rag.top_k).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := os.Getenv(envPrefix + "_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.body_limit_mb", 50)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.cors_credentials", true)
	v.SetDefault("server.upload_timeout", "10m")
	v.SetDefault("server.ask_timeout", "5m")

	v.SetDefault("storage.upload_dir", "uploaded_pdfs")

	v.SetDefault("ollama.base_url", "http://localhost:11434/v1")
	v.SetDefault("ollama.api_key", "ollama")
	v.SetDefault("ollama.embed_model", "nomic-embed-text")
	v.SetDefault("ollama.chat_model", "tinyllama")
	v.SetDefault("ollama.temperature", 0.2)
	v.SetDefault("ollama.readiness_check", true)

	v.SetDefault("rag.chunk_size", 1000)
	v.SetDefault("rag.chunk_overlap", 200)
	v.SetDefault("rag.top_k", 4)
	v.SetDefault("rag.embed_batch_size", 16)
	v.SetDefault("rag.embed_workers", 4)

	v.SetDefault("pdf.extractor", "native")

	v.SetDefault("index.backend", "memory")
	v.SetDefault("index.pg_conn", "host=localhost port=5432 user=postgres password=123123 dbname=pdf_ai sslmode=disable")
	v.SetDefault("index.dimension", 768)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "production")
}
