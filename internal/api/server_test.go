package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/config"
	"course-rag/internal/models"
	"course-rag/internal/rag"
)

type stubChain struct {
	result   *models.QueryResult
	err      error
	lastOpts rag.QueryOptions
}

func (s *stubChain) Query(ctx context.Context, question string, opts rag.QueryOptions) (*models.QueryResult, error) {
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubChain) AddDocuments(ctx context.Context, chunks []models.Chunk) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	ids := make([]string, len(chunks))
	return ids, nil
}

func testServerConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Storage.DocumentsDir = t.TempDir()
	cfg.Storage.UploadsDir = t.TempDir()
	return cfg
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(&stubChain{}, testServerConfig(t))

	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestQueryEndpoint(t *testing.T) {
	chain := &stubChain{result: &models.QueryResult{
		Answer:     "the answer",
		Context:    "ctx",
		Sources:    []models.Source{{Source: "bio101.txt", Content: "Photosynthesis..."}},
		NumSources: 1,
	}}
	srv := NewServer(chain, testServerConfig(t))

	w := doJSON(t, srv.Handler(), http.MethodPost, "/query", QueryRequest{
		Question: "What is photosynthesis?",
		K:        3,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "the answer", resp.Answer)
	assert.Equal(t, 1, resp.NumSources)
	assert.Equal(t, "bio101.txt", resp.Sources[0].Source)
	assert.Equal(t, 3, chain.lastOpts.K)
}

func TestQueryEndpointRequiresQuestion(t *testing.T) {
	srv := NewServer(&stubChain{}, testServerConfig(t))

	w := doJSON(t, srv.Handler(), http.MethodPost, "/query", QueryRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryEndpointMapsInvalidArgument(t *testing.T) {
	chain := &stubChain{err: fmt.Errorf("%w: k must be positive", models.ErrInvalidArgument)}
	srv := NewServer(chain, testServerConfig(t))

	w := doJSON(t, srv.Handler(), http.MethodPost, "/query", QueryRequest{Question: "q", K: -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryEndpointMapsConnectionError(t *testing.T) {
	chain := &stubChain{err: fmt.Errorf("%w: backend down", models.ErrConnection)}
	srv := NewServer(chain, testServerConfig(t))

	w := doJSON(t, srv.Handler(), http.MethodPost, "/query", QueryRequest{Question: "q"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testServerConfig(t)
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.Requests = 2
	srv := NewServer(&stubChain{}, cfg)
	handler := srv.Handler()

	for i := 0; i < 2; i++ {
		w := doJSON(t, handler, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestAPIKeyMiddleware(t *testing.T) {
	cfg := testServerConfig(t)
	cfg.Server.APIKeyEnabled = true
	cfg.Server.APIKey = "secret"
	chain := &stubChain{result: &models.QueryResult{Answer: "ok"}}
	srv := NewServer(chain, cfg)
	handler := srv.Handler()

	// Health stays open.
	w := doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Missing key.
	w = doJSON(t, handler, http.MethodPost, "/query", QueryRequest{Question: "q"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong key.
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(`{"question":"q"}`))
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Correct key.
	req = httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(`{"question":"q"}`))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	cfg := testServerConfig(t)
	srv := NewServer(&stubChain{}, cfg)

	w := doJSON(t, srv.Handler(), http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, cfg.VectorStore.Type, body["vector_store"])
}

func TestIngestEndpointEmptyDirectory(t *testing.T) {
	srv := NewServer(&stubChain{}, testServerConfig(t))

	w := doJSON(t, srv.Handler(), http.MethodPost, "/ingest", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.ChunksCreated)
}
