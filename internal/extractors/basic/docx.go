package basic

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Props struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
	} `xml:"pPr"`
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// docxParagraphs reads word/document.xml and returns one element per
// non-empty paragraph. Heading styles become titles.
func docxParagraphs(content []byte) ([]domain.Element, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("basic: docx is not a zip archive: %w", domain.ErrInvalidInput)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("basic: open document.xml: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("basic: read document.xml: %w", err)
		}
		return parseDocumentXML(data)
	}
	return nil, fmt.Errorf("basic: word/document.xml missing: %w", domain.ErrInvalidInput)
}

// parseDocumentXML extracts paragraphs from the document XML.
func parseDocumentXML(data []byte) ([]domain.Element, error) {
	var doc documentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("basic: parse document.xml: %w", err)
	}

	var elements []domain.Element
	for _, para := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range para.Runs {
			for _, t := range r.Text {
				sb.WriteString(t.Content)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		typ := domain.ElementNarrativeText
		if style := strings.ToLower(para.Props.Style.Val); strings.HasPrefix(style, "heading") || style == "title" {
			typ = domain.ElementTitle
		}
		elements = append(elements, domain.Element{Text: text, Type: typ})
	}
	return elements, nil
}
