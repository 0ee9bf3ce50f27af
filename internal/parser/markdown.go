package parser

import (
	"bytes"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

func parseMarkdown(filePath string) ([]section, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	plain, err := markdownToText(data)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(plain)) == 0 {
		return nil, nil
	}
	return []section{{text: string(plain), page: defaultPageNumber}}, nil
}

// markdownToText parses GFM markdown and extracts the plain text,
// dropping markup so headings and emphasis don't pollute embeddings.
func markdownToText(source []byte) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
		} else if n.Type() == ast.TypeBlock {
			buf.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
