// Package pgstore is the remote-managed vector store backend, a
// Postgres table with a pgvector column. Writes are durable
// on commit but may not be immediately visible to a concurrent search
// on a read replica.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"course-rag/internal/config"
	"course-rag/internal/embedding"
	"course-rag/internal/helper"
	"course-rag/internal/models"
)

type record struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            string            `bun:"id,pk"`
	Content       string            `bun:"content,notnull"`
	Metadata      map[string]string `bun:"metadata,type:jsonb"`
	Embedding     pgvector.Vector   `bun:"embedding,notnull"`
}

type scoredRecord struct {
	record
	Score float32 `bun:"score,scanonly"`
}

// Store implements vectorstore.Store over Postgres with the pgvector
// extension. Cosine distance from the <=> operator is converted to
// similarity (1 - distance) so scores are higher-is-better.
type Store struct {
	db       *bun.DB
	embedder embedding.Embedder
	table    string
}

func New(ctx context.Context, cfg *config.PgvectorConfig, embedder embedding.Embedder) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: pgvector dsn is required", models.ErrConfiguration)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: pinging postgres: %v", models.ErrConnection, err)
	}

	s := &Store{db: db, embedder: embedder, table: cfg.Table}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}

	log.Info().Str("table", s.table).Msg("Initialized pgvector store")
	return s, nil
}

// initSchema attaches to an existing table or creates it with the
// embedder's declared dimension and a cosine index.
func (s *Store) initSchema(ctx context.Context) error {
	stmts := []struct {
		query string
		args  []any
	}{
		{query: "CREATE EXTENSION IF NOT EXISTS vector"},
		{
			query: "CREATE TABLE IF NOT EXISTS ? (id text PRIMARY KEY, content text NOT NULL, metadata jsonb, embedding vector(?) NOT NULL)",
			args:  []any{bun.Ident(s.table), s.embedder.Dimension()},
		},
		{
			query: "CREATE INDEX IF NOT EXISTS ? ON ? USING ivfflat (embedding vector_cosine_ops)",
			args:  []any{bun.Ident(s.table + "_embedding_idx"), bun.Ident(s.table)},
		},
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("%w: initializing schema: %v", models.ErrConnection, err)
		}
	}
	return nil
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

	records := make([]record, len(chunks))
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
		records[i] = record{
			ID:        id,
			Content:   c.Content,
			Metadata:  c.Metadata,
			Embedding: pgvector.NewVector(vecs[i]),
		}
	}

	if _, err := s.db.NewInsert().
		Model(&records).
		ModelTableExpr("? AS d", bun.Ident(s.table)).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: storing %d documents: %v", models.ErrConnection, len(records), err)
	}

	log.Debug().Int("count", len(records)).Msg("Stored documents in pgvector")
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

	qvec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(qvec) != s.embedder.Dimension() {
		return nil, fmt.Errorf("%w: got %d, store expects %d",
			models.ErrDimensionMismatch, len(qvec), s.embedder.Dimension())
	}
	pv := pgvector.NewVector(qvec)

	var rows []scoredRecord
	q := s.db.NewSelect().
		Model(&rows).
		ModelTableExpr("? AS d", bun.Ident(s.table)).
		ColumnExpr("d.id, d.content, d.metadata").
		ColumnExpr("1 - (d.embedding <=> ?) AS score", pv).
		OrderExpr("d.embedding <=> ?", pv).
		Limit(k)

	if len(filter) > 0 {
		fj, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding filter: %v", models.ErrInvalidArgument, err)
		}
		q = q.Where("d.metadata @> ?::jsonb", string(fj))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: searching documents: %v", models.ErrConnection, err)
	}

	out := make([]models.ScoredDocument, len(rows))
	for i, r := range rows {
		out[i] = models.ScoredDocument{
			Document: models.Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata},
			Score:    r.Score,
		}
	}
	return out, nil
}

// Reset drops all stored documents but keeps the table.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE ?", bun.Ident(s.table)); err != nil {
		return fmt.Errorf("%w: truncating %s: %v", models.ErrConnection, s.table, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
