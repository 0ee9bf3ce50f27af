package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"course-rag/internal/models"
)

// Vector store backend selectors. The factory rejects anything else.
const (
	StorePgvector = "pgvector"
	StoreChromem  = "chromem"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	EmbedLLM    LLMConfig         `yaml:"embedding"`
	InferLLM    LLMConfig         `yaml:"llm"`
	RAG         RAGConfig         `yaml:"rag"`
	Storage     StorageConfig     `yaml:"storage"`
}

type ServerConfig struct {
	Host           string          `yaml:"host"`
	Port           int             `yaml:"port"`
	APIKeyEnabled  bool            `yaml:"api_key_enabled"`
	APIKey         string          `yaml:"api_key"`
	MaxUploadBytes int64           `yaml:"max_upload_bytes"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled       bool `yaml:"enabled"`
	Requests      int  `yaml:"requests"`
	PeriodSeconds int  `yaml:"period_seconds"`
}

type VectorStoreConfig struct {
	Type     string         `yaml:"type"`
	Pgvector PgvectorConfig `yaml:"pgvector"`
	Chromem  ChromemConfig  `yaml:"chromem"`
}

type PgvectorConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Table    string `yaml:"table"`
	Debug    bool   `yaml:"debug"`
}

type ChromemConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

// LLMConfig describes one model endpoint, shared by the embedding and
// inference sections.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Dimension   int     `yaml:"dimension"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
}

type RAGConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float32 `yaml:"similarity_threshold"`
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
}

type StorageConfig struct {
	DocumentsDir string `yaml:"documents_dir"`
	UploadsDir   string `yaml:"uploads_dir"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading config file: %v", models.ErrConfiguration, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config file: %v", models.ErrConfiguration, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 10 << 20
	}
	if c.Server.RateLimit.Requests == 0 {
		c.Server.RateLimit.Requests = 100
	}
	if c.Server.RateLimit.PeriodSeconds == 0 {
		c.Server.RateLimit.PeriodSeconds = 60
	}
	if c.VectorStore.Type == "" {
		c.VectorStore.Type = StoreChromem
	}
	if c.VectorStore.Pgvector.Table == "" {
		c.VectorStore.Pgvector.Table = "documents"
	}
	if c.VectorStore.Chromem.Path == "" {
		c.VectorStore.Chromem.Path = "./data/chromem_db"
	}
	if c.VectorStore.Chromem.Collection == "" {
		c.VectorStore.Chromem.Collection = "course_documents"
	}
	if c.EmbedLLM.Dimension == 0 {
		c.EmbedLLM.Dimension = 768
	}
	if c.InferLLM.Temperature == 0 {
		c.InferLLM.Temperature = 0.7
	}
	if c.InferLLM.MaxTokens == 0 {
		c.InferLLM.MaxTokens = 512
	}
	if c.InferLLM.TopP == 0 {
		c.InferLLM.TopP = 0.9
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 5
	}
	if c.RAG.SimilarityThreshold == 0 {
		c.RAG.SimilarityThreshold = 0.7
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 1000
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 200
	}
	if c.Storage.DocumentsDir == "" {
		c.Storage.DocumentsDir = "./data/documents"
	}
	if c.Storage.UploadsDir == "" {
		c.Storage.UploadsDir = "./data/uploads"
	}
}

func (c *Config) Validate() error {
	switch c.VectorStore.Type {
	case StorePgvector, StoreChromem:
	default:
		return fmt.Errorf("%w: unsupported vector store type: %s (supported: %s, %s)",
			models.ErrConfiguration, c.VectorStore.Type, StorePgvector, StoreChromem)
	}
	if c.Server.APIKeyEnabled && c.Server.APIKey == "" {
		return fmt.Errorf("%w: api_key_enabled is set but api_key is empty", models.ErrConfiguration)
	}
	if c.EmbedLLM.Dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive", models.ErrConfiguration)
	}
	return nil
}
