// Package vectorstore defines the storage contract the retrieval chain
// depends on and selects between the two backend implementations: a
// remote Postgres/pgvector store and a local embedded chromem store.
package vectorstore

import (
	"context"

	"course-rag/internal/models"
)

// Store persists (vector, content, metadata) tuples and answers
// nearest-neighbor queries. Both implementations report cosine
// similarity on a higher-is-better scale so the retrieval chain can
// apply one threshold regardless of backend. Implementations are safe
// for concurrent use.
type Store interface {
	// AddDocuments embeds each chunk's content (batched), assigns an id
	// and persists the records. It returns one id per chunk, in input
	// order. On failure the caller must assume nothing was stored.
	AddDocuments(ctx context.Context, chunks []models.Chunk) ([]string, error)

	// SimilaritySearch returns up to k documents ordered by descending
	// similarity to the query. k must be positive.
	SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]models.Document, error)

	// SimilaritySearchWithScore is SimilaritySearch with raw scores
	// attached. This is the primary operation used by the retrieval
	// chain.
	SimilaritySearchWithScore(ctx context.Context, query string, k int, filter map[string]string) ([]models.ScoredDocument, error)
}

// Resetter is implemented by stores that support dropping the whole
// collection, used by the ingest tool to rebuild from scratch.
type Resetter interface {
	Reset(ctx context.Context) error
}
