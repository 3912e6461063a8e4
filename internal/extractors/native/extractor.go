// Package native extracts structured text in-process with format libraries:
// PDF pages via ledongthuc/pdf, HTML via goquery and spreadsheets via excelize.
package native

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/extractors/basic"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// blockSelector lists the HTML elements that become elements of their own.
const blockSelector = "h1,h2,h3,h4,h5,h6,p,li,pre,blockquote,table"

// Extractor is the in-process library extraction method.
type Extractor struct {
	handlers map[domain.ContentType]func(*domain.RawFile) ([]domain.Element, error)
}

// New creates a native extractor.
func New() *Extractor {
	e := &Extractor{}
	e.handlers = map[domain.ContentType]func(*domain.RawFile) ([]domain.Element, error){
		domain.ContentPDF:         extractPDF,
		domain.ContentHTML:        extractHTML,
		domain.ContentSpreadsheet: extractSpreadsheet,
	}
	return e
}

// Method returns the extraction method name.
func (e *Extractor) Method() domain.ExtractionMethod {
	return domain.ExtractionNative
}

// Supports returns true for PDF, HTML and spreadsheet files.
func (e *Extractor) Supports(ct domain.ContentType) bool {
	_, ok := e.handlers[ct]
	return ok
}

// Extract dispatches to the handler for the content type.
func (e *Extractor) Extract(ctx context.Context, file *domain.RawFile, ct domain.ContentType) ([]domain.Element, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	handler, ok := e.handlers[ct]
	if !ok {
		return nil, fmt.Errorf("native: %s: %w", ct, domain.ErrUnsupportedType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return handler(file)
}

// extractPDF reads each page's plain text and segments it into paragraphs.
func extractPDF(file *domain.RawFile) ([]domain.Element, error) {
	reader, err := pdf.NewReader(bytes.NewReader(file.Content), int64(len(file.Content)))
	if err != nil {
		return nil, fmt.Errorf("native: open pdf: %w", err)
	}

	var elements []domain.Element
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("native: page %d: %w", i, err)
		}
		elements = append(elements, basic.Paragraphs(text, i)...)
	}
	return elements, nil
}

// extractHTML walks block elements in document order.
func extractHTML(file *domain.RawFile) ([]domain.Element, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(file.Content))
	if err != nil {
		return nil, fmt.Errorf("native: parse html: %w", err)
	}
	doc.Find("script,style,noscript,svg,template").Remove()

	var elements []domain.Element
	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		elements = append(elements, domain.Element{Text: title, Type: domain.ElementTitle})
	}

	doc.Find("body").Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are emitted by their outermost ancestor.
		if s.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}
		tag := goquery.NodeName(s)
		var el domain.Element
		switch {
		case tag == "table":
			el = domain.Element{Text: tableText(s), Type: domain.ElementTable}
		case tag == "pre":
			el = domain.Element{Text: strings.Trim(s.Text(), "\n"), Type: domain.ElementCode}
		case tag == "li":
			el = domain.Element{Text: normalise(s.Text()), Type: domain.ElementListItem}
		case len(tag) == 2 && tag[0] == 'h':
			el = domain.Element{Text: normalise(s.Text()), Type: domain.ElementTitle}
		default:
			el = domain.Element{Text: normalise(s.Text()), Type: domain.ElementNarrativeText}
		}
		if strings.TrimSpace(el.Text) != "" {
			elements = append(elements, el)
		}
	})
	return elements, nil
}

// tableText renders rows as pipe-separated cells.
func tableText(table *goquery.Selection) string {
	var rows []string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, normalise(td.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	})
	return strings.Join(rows, "\n")
}

// extractSpreadsheet emits one table element per non-empty sheet.
// The sheet's 1-based index is used as its page number.
func extractSpreadsheet(file *domain.RawFile) ([]domain.Element, error) {
	f, err := excelize.OpenReader(bytes.NewReader(file.Content))
	if err != nil {
		return nil, fmt.Errorf("native: open spreadsheet: %w", err)
	}
	defer f.Close()

	var elements []domain.Element
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("native: sheet %q: %w", sheet, err)
		}
		var lines []string
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				if cell = strings.TrimSpace(cell); cell != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
		if len(lines) == 0 {
			continue
		}
		elements = append(elements, domain.Element{
			Text:       sheet + "\n" + strings.Join(lines, "\n"),
			Type:       domain.ElementTable,
			PageNumber: i + 1,
		})
	}
	return elements, nil
}

// normalise collapses whitespace runs to single spaces.
func normalise(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
