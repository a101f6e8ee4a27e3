package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"rag-chatbot/internal/pkg/errors"
)

// LoadFiles extracts raw text from each path, one result per path in
// input order. Unknown extensions and missing files fail the whole call.
func LoadFiles(paths []string) ([]string, error) {
	texts := make([]string, 0, len(paths))
	for _, path := range paths {
		content, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		texts = append(texts, content)
	}
	return texts, nil
}

func LoadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		log.Error().Str("path", path).Msg("file not found")
		return "", fmt.Errorf("%w: %s", errors.ErrNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return loadPDF(path)
	case ".docx":
		return loadDOCX(path)
	case ".md":
		return loadMarkdown(path)
	case ".xlsx":
		return loadXLSX(path)
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		log.Error().Str("path", path).Str("ext", ext).Msg("unsupported file type")
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedType, ext)
	}
}

func loadPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf %s: %w", path, err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d of %s: %w", i, path, err)
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}

func loadDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read docx %s: %w", path, err)
	}
	defer r.Close()
	return r.Editable().GetContent(), nil
}

// loadMarkdown walks the parsed AST and keeps only text nodes, dropping
// markup so token offsets line up with what the reader sees.
func loadMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var sb strings.Builder
	err = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(data))
			sb.WriteString(" ")
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

func loadXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read xlsx %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
