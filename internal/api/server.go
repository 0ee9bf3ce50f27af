// Package api exposes the RAG chain over HTTP: querying, document
// upload and directory ingestion, plus health and stats endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"course-rag/internal/config"
	"course-rag/internal/models"
	"course-rag/internal/rag"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 120 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Chain is the slice of the RAG chain the handlers need. *rag.RAG
// satisfies it; tests substitute a stub.
type Chain interface {
	Query(ctx context.Context, question string, opts rag.QueryOptions) (*models.QueryResult, error)
	AddDocuments(ctx context.Context, chunks []models.Chunk) ([]string, error)
}

// Server wires the handlers, middleware and the shared RAG chain
// instance. The chain is constructed once and reused across requests.
type Server struct {
	mux     *http.ServeMux
	chain   Chain
	cfg     *config.Config
	limiter *rateLimiter
}

func NewServer(chain Chain, cfg *config.Config) *Server {
	s := &Server{
		mux:   http.NewServeMux(),
		chain: chain,
		cfg:   cfg,
		limiter: newRateLimiter(
			cfg.Server.RateLimit.Requests,
			time.Duration(cfg.Server.RateLimit.PeriodSeconds)*time.Second,
		),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /", s.handleHealth)
	s.mux.HandleFunc("POST /query", s.handleQuery)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /ingest", s.handleIngest)
	s.mux.HandleFunc("GET /stats", s.handleStats)

	return s
}

// Handler returns the mux wrapped in middleware, recovery outermost.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	h = s.apiKeyMiddleware(h)
	h = s.rateLimitMiddleware(h)
	h = loggingMiddleware(h)
	h = recoveryMiddleware(h)
	return h
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
