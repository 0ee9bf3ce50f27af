package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/config"
	"course-rag/internal/models"
)

func TestNewEmbedderUnsupportedProvider(t *testing.T) {
	_, err := NewEmbedder(&config.LLMConfig{Provider: "bogus", Model: "m", Dimension: 8})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestNewEmbedderOllama(t *testing.T) {
	e, err := NewEmbedder(&config.LLMConfig{
		Provider:  "ollama",
		BaseURL:   "http://localhost:11434",
		Model:     "nomic-embed-text",
		Dimension: 768,
	})
	require.NoError(t, err)
	assert.Equal(t, 768, e.Dimension())
}

func TestEmbedDocumentsEmptyInput(t *testing.T) {
	e, err := NewEmbedder(&config.LLMConfig{
		Provider:  "ollama",
		BaseURL:   "http://localhost:11434",
		Model:     "nomic-embed-text",
		Dimension: 768,
	})
	require.NoError(t, err)

	// No model round-trip for an empty batch.
	vecs, err := e.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}
