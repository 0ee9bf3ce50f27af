package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/config"
	"course-rag/internal/models"
)

type staticEmbedder struct{ dim int }

func (s *staticEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, s.dim), nil
}

func (s *staticEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = make([]float32, s.dim)
	}
	return vecs, nil
}

func (s *staticEmbedder) Dimension() int { return s.dim }

func TestNewRejectsUnsupportedType(t *testing.T) {
	cfg := &config.Config{}
	cfg.VectorStore.Type = "faiss"

	store, err := New(context.Background(), cfg, &staticEmbedder{dim: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "faiss")
}

func TestNewChromemStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.VectorStore.Type = config.StoreChromem
	cfg.VectorStore.Chromem = config.ChromemConfig{
		Collection: "test_collection",
		InMemory:   true,
	}

	store, err := New(context.Background(), cfg, &staticEmbedder{dim: 4})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestNewPgvectorRequiresDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.VectorStore.Type = config.StorePgvector

	store, err := New(context.Background(), cfg, &staticEmbedder{dim: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.Nil(t, store)
}
