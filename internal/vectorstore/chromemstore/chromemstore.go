// Package chromemstore is the local-embedded vector store backend built
// on chromem-go. Documents are durable under the configured path once a
// write returns; chromem serializes writes internally so ingestion can
// run alongside searches without corrupting them.
package chromemstore

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"course-rag/internal/config"
	"course-rag/internal/embedding"
	"course-rag/internal/helper"
	"course-rag/internal/models"
)

const compress = false

// Store implements vectorstore.Store over a chromem-go collection.
// chromem reports cosine similarity directly, so scores need no
// conversion.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embedding.Embedder
}

func New(cfg *config.ChromemConfig, embedder embedding.Embedder) (*Store, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("%w: opening chromem database: %v", models.ErrConnection, err)
		}
	}

	// Attaches to an existing collection or creates it on first use.
	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, embeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("%w: creating collection %s: %v", models.ErrConnection, cfg.Collection, err)
	}

	log.Info().
		Str("path", cfg.Path).
		Str("collection", cfg.Collection).
		Bool("in_memory", cfg.InMemory).
		Msg("Initialized chromem store")

	return &Store{db: db, collection: collection, embedder: embedder}, nil
}

func embeddingFunc(embedder embedding.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

func (s *Store) AddDocuments(ctx context.Context, chunks []models.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vecs, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	docs := make([]chromem.Document, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		if len(vecs[i]) != s.embedder.Dimension() {
			return nil, fmt.Errorf("%w: got %d, store expects %d",
				models.ErrDimensionMismatch, len(vecs[i]), s.embedder.Dimension())
		}
		id, err := helper.GenerateUUID()
		if err != nil {
			return nil, err
		}
		ids[i] = id
		docs[i] = chromem.Document{
			ID:        id,
			Content:   c.Content,
			Metadata:  c.Metadata,
			Embedding: vecs[i],
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("%w: storing %d documents: %v", models.ErrConnection, len(docs), err)
	}

	log.Debug().Int("count", len(docs)).Msg("Stored documents in chromem")
	return ids, nil
}

func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]models.Document, error) {
	scored, err := s.SimilaritySearchWithScore(ctx, query, k, filter)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, len(scored))
	for i, sd := range scored {
		docs[i] = sd.Document
	}
	return docs, nil
}

func (s *Store) SimilaritySearchWithScore(ctx context.Context, query string, k int, filter map[string]string) ([]models.ScoredDocument, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", models.ErrInvalidArgument, k)
	}

	// chromem rejects queries asking for more results than the
	// collection holds.
	if count := s.collection.Count(); count == 0 {
		return []models.ScoredDocument{}, nil
	} else if k > count {
		k = count
	}

	qvec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(qvec) != s.embedder.Dimension() {
		return nil, fmt.Errorf("%w: got %d, store expects %d",
			models.ErrDimensionMismatch, len(qvec), s.embedder.Dimension())
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: qvec,
		NResults:       k,
		Where:          filter,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection: %v", models.ErrConnection, err)
	}

	out := make([]models.ScoredDocument, len(results))
	for i, r := range results {
		out[i] = models.ScoredDocument{
			Document: models.Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata},
			Score:    r.Similarity,
		}
	}
	return out, nil
}

// Reset drops and recreates the collection. Not safe to run while
// queries are in flight; the ingest tool calls it before serving starts.
func (s *Store) Reset(ctx context.Context) error {
	name := s.collection.Name
	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("%w: deleting collection %s: %v", models.ErrConnection, name, err)
	}
	collection, err := s.db.GetOrCreateCollection(name, nil, embeddingFunc(s.embedder))
	if err != nil {
		return fmt.Errorf("%w: recreating collection %s: %v", models.ErrConnection, name, err)
	}
	s.collection = collection
	return nil
}
