package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"course-rag/internal/helper"
	"course-rag/internal/models"
	"course-rag/internal/parser"
	"course-rag/internal/rag"
)

type QueryRequest struct {
	Question    string  `json:"question"`
	K           int     `json:"k,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type QueryResponse struct {
	Answer     string          `json:"answer"`
	Sources    []models.Source `json:"sources"`
	NumSources int             `json:"num_sources"`
}

type UploadResponse struct {
	Message        string `json:"message"`
	FilesProcessed int    `json:"files_processed"`
	ChunksCreated  int    `json:"chunks_created"`
}

type IngestResponse struct {
	Message       string `json:"message"`
	ChunksCreated int    `json:"chunks_created"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "question is required")
		return
	}

	result, err := s.chain.Query(r.Context(), req.Question, rag.QueryOptions{
		K:           req.K,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		s.writeChainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Answer:     result.Answer,
		Sources:    result.Sources,
		NumSources: result.NumSources,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "no files provided")
		return
	}

	var saved []string
	for _, fh := range files {
		ext := filepath.Ext(fh.Filename)
		if !parser.Supported(ext) {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Sprintf("file type %s not supported", ext))
			return
		}
		if fh.Size > s.cfg.Server.MaxUploadBytes {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Sprintf("file %s exceeds maximum size of %d bytes", fh.Filename, s.cfg.Server.MaxUploadBytes))
			return
		}

		path, err := s.saveUpload(fh)
		if err != nil {
			log.Error().Err(err).Str("file", fh.Filename).Msg("Failed to save upload")
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to save upload")
			return
		}
		saved = append(saved, path)
	}

	var chunks []models.Chunk
	for _, path := range saved {
		fileChunks, err := parser.LoadFile(path, &s.cfg.RAG)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error",
				fmt.Sprintf("failed to parse %s", filepath.Base(path)))
			return
		}
		chunks = append(chunks, fileChunks...)
	}

	if _, err := s.chain.AddDocuments(r.Context(), chunks); err != nil {
		s.writeChainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Message:        "Documents uploaded and processed successfully",
		FilesProcessed: len(saved),
		ChunksCreated:  len(chunks),
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	chunks, err := parser.LoadDirectory(s.cfg.Storage.DocumentsDir, &s.cfg.RAG)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if len(chunks) == 0 {
		writeJSON(w, http.StatusOK, IngestResponse{
			Message: "No documents found in documents directory",
		})
		return
	}

	if _, err := s.chain.AddDocuments(r.Context(), chunks); err != nil {
		s.writeChainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Message:       "Documents ingested successfully",
		ChunksCreated: len(chunks),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"documents_in_library": countFiles(s.cfg.Storage.DocumentsDir),
		"uploaded_documents":   countFiles(s.cfg.Storage.UploadsDir),
		"vector_store":         s.cfg.VectorStore.Type,
		"embedding_model":      s.cfg.EmbedLLM.Model,
		"llm_model":            s.cfg.InferLLM.Model,
	})
}

func (s *Server) writeChainError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Request failed")
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, models.ErrConnection):
		writeError(w, http.StatusBadGateway, "backend_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// saveUpload writes an uploaded file into the uploads directory and
// returns its path. Only the base name is kept so clients can't direct
// writes outside the directory.
func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	if err := helper.CreateFolder(s.cfg.Storage.UploadsDir); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path := filepath.Join(s.cfg.Storage.UploadsDir, filepath.Base(fh.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	log.Info().Str("file", fh.Filename).Int64("bytes", fh.Size).Msg("Uploaded file")
	return path, nil
}

func countFiles(dir string) int {
	count := 0
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}
	return count
}
