package parser

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/config"
	"course-rag/internal/models"
)

func testRAGConfig() *config.RAGConfig {
	return &config.RAGConfig{ChunkSize: 1000, ChunkOverlap: 200}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "Photosynthesis converts light into chemical energy.")

	chunks, err := LoadFile(path, testRAGConfig())
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, "Photosynthesis converts light into chemical energy.", c.Content)
	assert.Equal(t, path, c.Metadata[models.MetaSource])
	assert.Equal(t, ".txt", c.Metadata[models.MetaFileType])
	assert.Equal(t, "1", c.Metadata[models.MetaChunkID])
	assert.Equal(t, strconv.Itoa(len(c.Content)), c.Metadata[models.MetaChunkSize])
}

func TestLoadFileMarkdownStripsMarkup(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", "# Biology\n\nCells are the *basic* unit of life.")

	chunks, err := LoadFile(path, testRAGConfig())
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Contains(t, chunks[0].Content, "Biology")
	assert.Contains(t, chunks[0].Content, "basic")
	assert.NotContains(t, chunks[0].Content, "#")
	assert.NotContains(t, chunks[0].Content, "*")
	assert.Equal(t, ".md", chunks[0].Metadata[models.MetaFileType])
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.exe", "binary")

	_, err := LoadFile(path, testRAGConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestLoadFileChunkIDsAreSequential(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("lorem ipsum dolor sit amet. ", 40)
	path := writeFile(t, dir, "long.txt", content)

	cfg := &config.RAGConfig{ChunkSize: 100, ChunkOverlap: 20}
	chunks, err := LoadFile(path, cfg)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, strconv.Itoa(i+1), c.Metadata[models.MetaChunkID])
		assert.LessOrEqual(t, len(c.Content), 100)
		assert.Equal(t, strconv.Itoa(len(c.Content)), c.Metadata[models.MetaChunkSize])
	}
}

func TestDocxSectionsExtractsTextRuns(t *testing.T) {
	secs := docxSections(`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t>world</w:t></w:r></w:p>`)
	require.Len(t, secs, 1)
	assert.Equal(t, "Hello world", strings.TrimSpace(secs[0].text))
}

func TestDocxSectionsWithoutTextRunsYieldsNothing(t *testing.T) {
	// No w:t runs means no indexable text; the markup itself must
	// never end up in a chunk.
	assert.Empty(t, docxSections(`<w:p><w:r><w:rPr></w:rPr></w:r></w:p>`))
	assert.Empty(t, docxSections(""))
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "first file content")
	writeFile(t, dir, "b.md", "second file content")
	writeFile(t, dir, "ignored.xyz", "unsupported")

	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(nested, 0o755))
	writeFile(t, nested, "c.txt", "third file content")

	chunks, err := LoadDirectory(dir, testRAGConfig())
	require.NoError(t, err)
	assert.Len(t, chunks, 3)

	sources := make(map[string]bool)
	for _, c := range chunks {
		sources[filepath.Base(c.Metadata[models.MetaSource])] = true
	}
	assert.True(t, sources["a.txt"])
	assert.True(t, sources["b.md"])
	assert.True(t, sources["c.txt"])
	assert.False(t, sources["ignored.xyz"])
}

func TestLoadDirectoryMissing(t *testing.T) {
	_, err := LoadDirectory("/nonexistent/path", testRAGConfig())
	require.Error(t, err)
}

func TestChunkContentOverlap(t *testing.T) {
	content := strings.Repeat("abcde ", 50) // 300 chars
	chunks := chunkContent(content, 100, 20)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
		assert.NotEmpty(t, c)
	}
}

func TestChunkContentShortInput(t *testing.T) {
	chunks := chunkContent("short text", 100, 20)
	assert.Equal(t, []string{"short text"}, chunks)
}

func TestChunkContentEmptyInput(t *testing.T) {
	assert.Nil(t, chunkContent("", 100, 20))
	assert.Nil(t, chunkContent("   ", 100, 20))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(".pdf"))
	assert.True(t, Supported(".MD"))
	assert.False(t, Supported(".exe"))
	assert.False(t, Supported(""))
}
