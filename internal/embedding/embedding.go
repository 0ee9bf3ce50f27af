package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"course-rag/internal/config"
	"course-rag/internal/models"
)

// Embedder converts text to fixed-dimension vectors. Implementations do
// not retry and do not truncate oversized input; failures surface as
// models.ErrEmbedding for the caller to handle.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// LLMEmbedder wraps a langchaingo embedder behind the Embedder contract.
type LLMEmbedder struct {
	impl      *embeddings.EmbedderImpl
	dimension int
}

// NewEmbedder builds an embedder for the configured provider. The
// declared dimension is trusted for the lifetime of the instance.
func NewEmbedder(cfg *config.LLMConfig) (*LLMEmbedder, error) {
	llm, err := newEmbeddingLLM(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: initializing embedding model: %v", models.ErrConfiguration, err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("%w: creating embedder: %v", models.ErrConfiguration, err)
	}

	log.Debug().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Int("dimension", cfg.Dimension).
		Msg("Initialized embedder")

	return &LLMEmbedder{impl: embedder, dimension: cfg.Dimension}, nil
}

func newEmbeddingLLM(cfg *config.LLMConfig) (embeddings.EmbedderClient, error) {
	switch cfg.Provider {
	case "ollama", "":
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		return openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
			openai.WithEmbeddingModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

func (e *LLMEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbedding, err)
	}
	return vec, nil
}

func (e *LLMEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbedding, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", models.ErrEmbedding, len(vecs), len(texts))
	}
	return vecs, nil
}

func (e *LLMEmbedder) Dimension() int {
	return e.dimension
}
