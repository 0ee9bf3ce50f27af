package models

import "errors"

// Error taxonomy shared across the retrieval pipeline. Callers match
// with errors.Is; causes are attached with fmt.Errorf("...: %w", ...).
var (
	// ErrConfiguration means missing or invalid setup. Fatal, no retry.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection means a backend is unreachable.
	ErrConnection = errors.New("connection error")

	// ErrInvalidArgument means bad caller input, rejected before any I/O.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDimensionMismatch means an embedding does not match the store's
	// declared dimension. Indicates misconfiguration.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbedding means the embedding model invocation failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration means the generation model invocation failed.
	ErrGeneration = errors.New("generation failed")
)
