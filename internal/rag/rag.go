// Package rag orchestrates the retrieve -> filter -> format -> generate
// pipeline over one vector store and one generator.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"course-rag/internal/config"
	"course-rag/internal/llm"
	"course-rag/internal/models"
	"course-rag/internal/vectorstore"
)

// QueryOptions tune a single query. Zero values fall back to the
// configured defaults.
type QueryOptions struct {
	K           int
	Filter      map[string]string
	MaxTokens   int
	Temperature float64
}

// RAG is the retrieval chain. It holds no per-query state and is safe
// for concurrent use; construct once and share across requests.
type RAG struct {
	store     vectorstore.Store
	generator llm.Generator
	cfg       *config.Config
}

func NewRAG(store vectorstore.Store, generator llm.Generator, cfg *config.Config) *RAG {
	log.Info().Msg("Initialized RAG chain")
	return &RAG{store: store, generator: generator, cfg: cfg}
}

// Query runs one full retrieve-then-generate pass. A failure in
// retrieval or generation aborts the query; an empty retrieval result
// is not an error.
func (r *RAG) Query(ctx context.Context, question string, opts QueryOptions) (*models.QueryResult, error) {
	if opts.K < 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", models.ErrInvalidArgument, opts.K)
	}
	k := opts.K
	if k == 0 {
		k = r.cfg.RAG.TopK
	}

	log.Info().Str("question", question).Int("k", k).Msg("Processing query")

	matches, err := r.store.SimilaritySearchWithScore(ctx, question, k, opts.Filter)
	if err != nil {
		return nil, err
	}

	filtered := filterByThreshold(matches, r.cfg.RAG.SimilarityThreshold)
	log.Info().
		Int("retrieved", len(matches)).
		Int("kept", len(filtered)).
		Float32("threshold", r.cfg.RAG.SimilarityThreshold).
		Msg("Filtered retrieved documents")

	contextText := FormatContext(filtered)

	var genOpts []llm.Option
	if opts.MaxTokens > 0 {
		genOpts = append(genOpts, llm.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		genOpts = append(genOpts, llm.WithTemperature(opts.Temperature))
	}

	prompt := llm.FormatPrompt(models.SystemPrompt, question, contextText)
	answer, err := r.generator.Generate(ctx, prompt, genOpts...)
	if err != nil {
		return nil, err
	}

	sources := assembleSources(filtered)

	log.Info().Int("num_sources", len(sources)).Msg("Generated answer")
	return &models.QueryResult{
		Answer:     answer,
		Context:    contextText,
		Sources:    sources,
		NumSources: len(sources),
	}, nil
}

// AddDocuments forwards ingested chunks to the vector store.
func (r *RAG) AddDocuments(ctx context.Context, chunks []models.Chunk) ([]string, error) {
	ids, err := r.store.AddDocuments(ctx, chunks)
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", len(ids)).Msg("Added documents to vector store")
	return ids, nil
}

// filterByThreshold keeps matches scoring at or above the threshold,
// preserving the descending-score order they arrived in.
func filterByThreshold(matches []models.ScoredDocument, threshold float32) []models.ScoredDocument {
	filtered := make([]models.ScoredDocument, 0, len(matches))
	for _, m := range matches {
		if m.Score >= threshold {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// FormatContext serializes matches into one labeled context block per
// match. The output is deterministic for a given match order.
func FormatContext(matches []models.ScoredDocument) string {
	if len(matches) == 0 {
		return models.NoContextFound
	}

	parts := make([]string, len(matches))
	for i, m := range matches {
		source := m.Metadata[models.MetaSource]
		if source == "" {
			source = "Unknown"
		}
		parts[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, source, strings.TrimSpace(m.Content))
	}
	return strings.Join(parts, "\n\n")
}

func assembleSources(matches []models.ScoredDocument) []models.Source {
	sources := make([]models.Source, len(matches))
	for i, m := range matches {
		source := m.Metadata[models.MetaSource]
		if source == "" {
			source = "Unknown"
		}
		// Truncation counts characters, not bytes, so multibyte
		// content is never cut mid-rune.
		content := m.Content
		if runes := []rune(content); len(runes) > models.SourceContentLimit {
			content = string(runes[:models.SourceContentLimit]) + "..."
		}
		sources[i] = models.Source{Source: source, Content: content}
	}
	return sources
}
