// Package parser loads course documents and splits them into chunks
// ready for embedding. Supported formats: pdf, docx, pptx, xlsx, ods,
// txt, md.
package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"course-rag/internal/config"
	"course-rag/internal/models"
)

const defaultPageNumber = 1

// section is extracted document text before chunking.
type section struct {
	text string
	page int
}

// SupportedExtensions lists the file types LoadFile accepts.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".pptx", ".xlsx", ".ods", ".txt", ".md"}
}

// Supported reports whether the file extension has a loader.
func Supported(ext string) bool {
	for _, e := range SupportedExtensions() {
		if e == strings.ToLower(ext) {
			return true
		}
	}
	return false
}

// LoadFile extracts text from a single document and splits it into
// chunks carrying source, file_type, chunk_id, chunk_size and
// page_number metadata. chunk_id is the 1-based sequence index within
// the file.
func LoadFile(filePath string, cfg *config.RAGConfig) ([]models.Chunk, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	var sections []section
	var err error
	switch ext {
	case ".pdf":
		sections, err = parsePDF(filePath)
	case ".docx":
		sections, err = parseDOCX(filePath)
	case ".pptx":
		sections, err = parsePPTX(filePath)
	case ".xlsx":
		sections, err = parseXLSX(filePath)
	case ".ods":
		sections, err = parseODS(filePath)
	case ".txt":
		sections, err = parseText(filePath)
	case ".md":
		sections, err = parseMarkdown(filePath)
	default:
		return nil, fmt.Errorf("%w: unsupported file format: %s", models.ErrInvalidArgument, ext)
	}
	if err != nil {
		return nil, err
	}

	chunks := buildChunks(sections, filePath, ext, cfg)
	log.Info().Str("file", filePath).Int("chunks", len(chunks)).Msg("Loaded document")
	return chunks, nil
}

// LoadDirectory walks dir recursively and loads every supported file.
// Files that fail to parse are logged and skipped.
func LoadDirectory(dir string, cfg *config.RAGConfig) ([]models.Chunk, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}

	var all []models.Chunk
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !Supported(filepath.Ext(path)) {
			return nil
		}
		chunks, err := LoadFile(path, cfg)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to load document, skipping")
			return nil
		}
		all = append(all, chunks...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("dir", dir).Int("chunks", len(all)).Msg("Loaded directory")
	return all, nil
}

// buildChunks splits extracted sections and attaches ingestion metadata.
func buildChunks(sections []section, filePath, ext string, cfg *config.RAGConfig) []models.Chunk {
	var chunks []models.Chunk
	chunkID := 0
	for _, sec := range sections {
		for _, content := range chunkContent(sec.text, cfg.ChunkSize, cfg.ChunkOverlap) {
			chunkID++
			chunks = append(chunks, models.Chunk{
				Content: content,
				Metadata: map[string]string{
					models.MetaSource:     filePath,
					models.MetaFileType:   ext,
					models.MetaChunkID:    strconv.Itoa(chunkID),
					models.MetaChunkSize:  strconv.Itoa(len(content)),
					models.MetaPageNumber: strconv.Itoa(sec.page),
				},
			})
		}
	}
	return chunks
}

func parsePDF(filePath string) ([]section, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var sections []section
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		sections = append(sections, section{text: pageText, page: i})
	}
	return sections, nil
}

func parseDOCX(filePath string) ([]section, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return docxSections(r.Editable().GetContent()), nil
}

// docxSections pulls the w:t text runs out of raw document XML. A
// document with no text runs yields nothing; markup is never indexed.
func docxSections(content string) []section {
	text := extractTextFromXML(content, "<w:t>", "</w:t>")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []section{{text: text, page: defaultPageNumber}}
}

func parsePPTX(filePath string) ([]section, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sections []section
	slideNum := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideNum++
		slideText := extractTextFromXML(string(data), "<a:t>", "</a:t>")
		if strings.TrimSpace(slideText) == "" {
			continue
		}
		sections = append(sections, section{text: slideText, page: slideNum})
	}
	return sections, nil
}

func parseXLSX(filePath string) ([]section, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var sections []section
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		sections = append(sections, section{text: text.String(), page: sheetNum + 1})
	}
	return sections, nil
}

func parseODS(filePath string) ([]section, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sections []section
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		sections = append(sections, section{text: text.String(), page: sheetNum + 1})
	}
	return sections, nil
}

func parseText(filePath string) ([]section, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []section{{text: string(data), page: defaultPageNumber}}, nil
}

// extractTextFromXML pulls the text between open/close tag pairs out of
// raw OOXML, joining runs with spaces.
func extractTextFromXML(xmlContent, openTag, closeTag string) string {
	var text bytes.Buffer
	parts := strings.Split(xmlContent, openTag)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		if endIdx := strings.Index(part, closeTag); endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

// chunkContent splits content into overlapping chunks of at most
// maxChars, preferring to break at a space, newline or period within
// the last tenth of the chunk.
func chunkContent(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	content = strings.TrimSpace(content)
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}
	if contentLen <= maxChars {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		// Look for a clean break point near the end of the chunk.
		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		chunk := strings.TrimSpace(content[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		start += maxChars - overlapChars
		if start >= contentLen {
			break
		}
	}

	return chunks
}
