// Package docparser extracts text and metadata from uploaded files for the
// multipart ingest path (§6.1), grounded on rag/parse.go's
// ParserManager/Parser/PDFParser/TextParser design, adapted from
// path-based os.Open reads to in-memory io.Reader uploads.
package docparser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/guility/relrag/internal/relrag"
)

// FileParser extracts a ParsedFile from file content already buffered in
// memory, mirroring rag/parse.go's Parser interface without the path
// dependency multipart uploads don't have.
type FileParser interface {
	Parse(filename string, content []byte) (relrag.ParsedFile, error)
}

// Manager routes an upload to the FileParser registered for its extension,
// the same dispatch shape as rag/parse.go's ParserManager.
type Manager struct {
	detector func(string) string
	parsers  map[string]FileParser
}

// New builds a Manager with the default pdf/text parsers registered.
func New() *Manager {
	return &Manager{
		detector: defaultFileTypeDetector,
		parsers: map[string]FileParser{
			"pdf":  pdfParser{},
			"text": textParser{},
		},
	}
}

// AddParser registers a FileParser for fileType, overriding any default.
func (m *Manager) AddParser(fileType string, p FileParser) {
	m.parsers[fileType] = p
}

// Parse implements relrag.DocumentParser.
func (m *Manager) Parse(filename string, r io.Reader) (relrag.ParsedFile, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return relrag.ParsedFile{}, fmt.Errorf("read upload: %w", err)
	}

	fileType := m.detector(filename)
	p, ok := m.parsers[fileType]
	if !ok {
		return relrag.ParsedFile{}, fmt.Errorf("no parser available for file type: %s", fileType)
	}
	return p.Parse(filename, content)
}

func defaultFileTypeDetector(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".txt", ".md":
		return "text"
	default:
		return "unknown"
	}
}

type pdfParser struct{}

func (pdfParser) Parse(filename string, content []byte) (relrag.ParsedFile, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return relrag.ParsedFile{}, fmt.Errorf("open pdf: %w", err)
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return relrag.ParsedFile{}, fmt.Errorf("extract text from page %d: %w", i, err)
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}

	return relrag.ParsedFile{
		Content: text.String(),
		Properties: map[string]relrag.PropertyValue{
			"source_file_name": {Value: filename, Type: relrag.PropertyString},
			"source_file_type": {Value: "pdf", Type: relrag.PropertyString},
			"page_count":       {Value: fmt.Sprintf("%d", numPages), Type: relrag.PropertyInt},
		},
	}, nil
}

type textParser struct{}

func (textParser) Parse(filename string, content []byte) (relrag.ParsedFile, error) {
	return relrag.ParsedFile{
		Content: string(content),
		Properties: map[string]relrag.PropertyValue{
			"source_file_name": {Value: filename, Type: relrag.PropertyString},
			"source_file_type": {Value: "text", Type: relrag.PropertyString},
		},
	}, nil
}
