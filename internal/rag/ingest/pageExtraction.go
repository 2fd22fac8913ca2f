package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const pageExtractTimeout = 10 * time.Second

func extractPDF(path string) ([]rawPage, error) {
	logger.Debug("extractPDF", "attempting extraction", path)
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []rawPage
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			logger.Debug("extractPDF", "null page", i)
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// one unreadable page does not discard the rest of the file
			logger.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		pages = append(pages, rawPage{
			Number:  i,
			Content: content,
		})
	}
	if len(pages) == 0 {
		return nil, errors.New("pdf has no extractable text")
	}
	return pages, nil
}

func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			// the pdf reader panics on some malformed content streams
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("pdf page panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageExtractTimeout):
		return "", errors.New("timeout")
	}
}

// extractPlainText reads a UTF-8 text file as a single page.
func extractPlainText(path string) ([]rawPage, error) {
	content, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	if !utf8.ValidString(content) {
		return nil, errors.New("file is not valid utf-8")
	}
	return []rawPage{{Number: 1, Content: content}}, nil
}

// extractMarkdown renders a markdown file to plain text, dropping the markup
// and keeping a blank line between blocks.
func extractMarkdown(path string) ([]rawPage, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown file: %w", err)
	}
	if !utf8.Valid(source) {
		return nil, errors.New("file is not valid utf-8")
	}
	return []rawPage{{Number: 1, Content: markdownToText(source)}}, nil
}

func markdownToText(source []byte) string {
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	var b bytes.Buffer
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.Label(source))
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(source))
				}
			}
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}

		if !entering && isLeafBlock(n) {
			endBlock(&b)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

func isLeafBlock(n ast.Node) bool {
	if n.Type() != ast.TypeBlock || n.Kind() == ast.KindDocument {
		return false
	}
	first := n.FirstChild()
	return first == nil || first.Type() == ast.TypeInline
}

func endBlock(b *bytes.Buffer) {
	if b.Len() == 0 {
		return
	}
	data := b.Bytes()
	switch {
	case bytes.HasSuffix(data, []byte("\n\n")):
	case data[len(data)-1] == '\n':
		b.WriteByte('\n')
	default:
		b.WriteString("\n\n")
	}
}
