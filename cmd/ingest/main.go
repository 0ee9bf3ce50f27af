package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"course-rag/internal/config"
	"course-rag/internal/embedding"
	"course-rag/internal/helper"
	"course-rag/internal/llm"
	"course-rag/internal/models"
	"course-rag/internal/parser"
	"course-rag/internal/rag"
	"course-rag/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	dirPath := flag.String("dir", "", "Directory of documents to ingest")
	query := flag.String("query", "", "Query to be answered")
	dryRun := flag.Bool("dry-run", false, "Parse and print chunks, do not store")
	reset := flag.Bool("reset", false, "Clear the vector store before ingesting")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	if *filePath == "" && *dirPath == "" && *query == "" {
		log.Fatal().Msg("Please provide a document via -file, a directory via -dir, or a question via -query")
	}

	var chunks []models.Chunk
	if *filePath != "" {
		chunks, err = parser.LoadFile(*filePath, &cfg.RAG)
		if err != nil {
			log.Fatal().Err(err).Msg("Error parsing document")
		}
	} else if *dirPath != "" {
		chunks, err = parser.LoadDirectory(*dirPath, &cfg.RAG)
		if err != nil {
			log.Fatal().Err(err).Msg("Error parsing directory")
		}
	}

	if *dryRun {
		helper.PrettyPrint(chunks)
		return
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := vectorstore.New(ctx, cfg, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}

	if *reset {
		resetter, ok := store.(vectorstore.Resetter)
		if !ok {
			log.Fatal().Msg("Configured vector store does not support reset")
		}
		if err := resetter.Reset(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error clearing vector store")
		}
		log.Info().Msg("Cleared vector store")
	}

	generator, err := llm.NewGenerator(&cfg.InferLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generator")
	}

	chain := rag.NewRAG(store, generator, cfg)

	if len(chunks) > 0 {
		ids, err := chain.AddDocuments(ctx, chunks)
		if err != nil {
			log.Fatal().Err(err).Msg("Error storing documents")
		}
		log.Info().Msgf("Ingested %d chunks", len(ids))
	}

	if *query != "" {
		runQuery(ctx, chain, *query)
	}
}

func runQuery(ctx context.Context, chain *rag.RAG, query string) {
	response, err := chain.Query(ctx, query, rag.QueryOptions{})
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, src := range response.Sources {
		fmt.Printf("%s: %s\n", src.Source, src.Content)
	}
	fmt.Println()

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Answer)
}
