package models

// Metadata keys assigned during ingestion.
const (
	MetaSource     = "source"
	MetaFileType   = "file_type"
	MetaChunkID    = "chunk_id"
	MetaChunkSize  = "chunk_size"
	MetaPageNumber = "page_number"
)

// NoContextFound is the context handed to the LLM when every retrieved
// match falls below the similarity threshold.
const NoContextFound = "No relevant information found in the course materials."

// SourceContentLimit is the number of characters of chunk content echoed
// back in a query response per source.
const SourceContentLimit = 200

const SystemPrompt = `You are a helpful AI assistant that answers questions based on course notes and exam papers.
Your role is to provide accurate, detailed answers using only the information from the provided context.

Guidelines:
- Answer questions based solely on the provided context
- If the context doesn't contain enough information, say so clearly
- Provide specific references to course materials when possible
- Be concise but thorough in your explanations
- If asked about topics not in the context, politely indicate that you don't have that information
- Format your answers clearly with proper structure`

// Chunk is a unit of ingested text with its provenance metadata.
// Chunks are immutable once handed to a vector store; re-ingesting the
// same file produces new chunks with new ids.
type Chunk struct {
	Content  string
	Metadata map[string]string
}

// Document is the stored view of a chunk inside a vector store.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// ScoredDocument pairs a stored document with its similarity score.
// Score is cosine similarity, higher means more similar, regardless of
// which backend produced it.
type ScoredDocument struct {
	Document
	Score float32
}

// Source attributes a piece of the answer context to its origin file.
type Source struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// QueryResult is the output of one RAG query.
type QueryResult struct {
	Answer     string   `json:"answer"`
	Context    string   `json:"context"`
	Sources    []Source `json:"sources"`
	NumSources int      `json:"num_sources"`
}
