package vectorstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"course-rag/internal/config"
	"course-rag/internal/embedding"
	"course-rag/internal/models"
	"course-rag/internal/vectorstore/chromemstore"
	"course-rag/internal/vectorstore/pgstore"
)

// New constructs the configured store variant. Construction is
// idempotent with respect to the backing index: an existing
// table/collection is attached to, a missing one is created.
func New(ctx context.Context, cfg *config.Config, embedder embedding.Embedder) (Store, error) {
	switch cfg.VectorStore.Type {
	case config.StorePgvector:
		log.Info().Msg("Creating pgvector store")
		return pgstore.New(ctx, &cfg.VectorStore.Pgvector, embedder)
	case config.StoreChromem:
		log.Info().Msg("Creating chromem store")
		return chromemstore.New(&cfg.VectorStore.Chromem, embedder)
	default:
		return nil, fmt.Errorf("%w: unsupported vector store type: %s (supported: %s, %s)",
			models.ErrConfiguration, cfg.VectorStore.Type, config.StorePgvector, config.StoreChromem)
	}
}
