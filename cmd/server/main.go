package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"course-rag/internal/api"
	"course-rag/internal/config"
	"course-rag/internal/embedding"
	"course-rag/internal/helper"
	"course-rag/internal/llm"
	"course-rag/internal/rag"
	"course-rag/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	for _, dir := range []string{cfg.Storage.DocumentsDir, cfg.Storage.UploadsDir} {
		if err := helper.CreateFolder(dir); err != nil {
			log.Fatal().Err(err).Msg("Error creating storage folder")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := vectorstore.New(ctx, cfg, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}

	generator, err := llm.NewGenerator(&cfg.InferLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generator")
	}

	// Single chain instance shared by every request handler.
	chain := rag.NewRAG(store, generator, cfg)

	srv := api.NewServer(chain, cfg)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
