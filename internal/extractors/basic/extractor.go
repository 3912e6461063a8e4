// Package basic provides the last extraction method of the chain.
// It never calls an external service, so it cannot fail through unavailability:
// text-like files are read directly, HTML is tag-stripped, DOCX is read from
// its XML parts and PDFs get a minimal text-operator scan.
package basic

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// minPrintableRatio is the share of printable runes an unknown file needs
// to be treated as text.
const minPrintableRatio = 0.9

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor is the always-available format-aware fallback.
type Extractor struct{}

// New creates a basic extractor.
func New() *Extractor {
	return &Extractor{}
}

// Method returns the extraction method name.
func (e *Extractor) Method() domain.ExtractionMethod {
	return domain.ExtractionBasic
}

// Supports returns true for every content type; unknown binaries fail in Extract.
func (e *Extractor) Supports(_ domain.ContentType) bool {
	return true
}

// Extract converts the file into elements without leaving the process.
func (e *Extractor) Extract(_ context.Context, file *domain.RawFile, ct domain.ContentType) ([]domain.Element, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	content := bytes.TrimPrefix(file.Content, utf8BOM)

	var elements []domain.Element
	switch ct {
	case domain.ContentText:
		elements = Paragraphs(string(content), 0)
	case domain.ContentMarkdown:
		elements = whole(string(content), domain.ElementUncategorized)
	case domain.ContentCode:
		elements = whole(string(content), domain.ElementCode)
	case domain.ContentHTML:
		elements = Paragraphs(StripHTML(string(content)), 0)
	case domain.ContentPDF:
		text, err := ExtractPDFText(content)
		if err != nil {
			return nil, err
		}
		elements = Paragraphs(text, 0)
	case domain.ContentDOCX:
		paras, err := docxParagraphs(content)
		if err != nil {
			return nil, err
		}
		elements = paras
	case domain.ContentSpreadsheet:
		return nil, fmt.Errorf("basic: spreadsheets need the native extractor: %w", domain.ErrUnsupportedType)
	default:
		if !looksLikeText(content) {
			return nil, fmt.Errorf("basic: binary content: %w", domain.ErrUnsupportedType)
		}
		elements = Paragraphs(string(content), 0)
	}

	if len(elements) == 0 {
		return nil, domain.ErrEmptyContent
	}
	return elements, nil
}

// whole returns the trimmed text as a single element, preserving layout.
func whole(text string, typ domain.ElementType) []domain.Element {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []domain.Element{{Text: strings.Trim(text, "\n"), Type: typ}}
}

// looksLikeText reports whether content is valid UTF-8 and mostly printable.
func looksLikeText(content []byte) bool {
	if len(content) == 0 || !utf8.Valid(content) {
		return false
	}
	total, printable := 0, 0
	for _, r := range string(content) {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	return float64(printable)/float64(total) >= minPrintableRatio
}
