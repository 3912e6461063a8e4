// Package poppler extracts PDF text with the pdftotext command-line tool.
//
// pdftotext separates pages with form feeds, so page numbers survive.
// The tool must be installed separately:
//
//	macOS:  brew install poppler
//	Linux:  apt install poppler-utils
package poppler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/extractors/basic"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DefaultBinary is the pdftotext executable looked up on PATH.
const DefaultBinary = "pdftotext"

// ErrToolNotFound is returned when pdftotext is not installed.
var ErrToolNotFound = errors.New("pdftotext not found: install poppler-utils")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrToolNotFound
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor runs pdftotext against a temporary copy of the upload.
type Extractor struct {
	runner CommandRunner
	binary string
}

// New creates an extractor that runs the given binary, or pdftotext.
func New(binary string) *Extractor {
	return NewWithRunner(binary, execRunner{})
}

// NewWithRunner creates an extractor with a custom command runner.
func NewWithRunner(binary string, runner CommandRunner) *Extractor {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Extractor{runner: runner, binary: binary}
}

// Method returns the extraction method name.
func (e *Extractor) Method() domain.ExtractionMethod {
	return domain.ExtractionPoppler
}

// Supports returns true for PDF only.
func (e *Extractor) Supports(ct domain.ContentType) bool {
	return ct == domain.ContentPDF
}

// Extract converts the PDF and segments each page into paragraphs.
func (e *Extractor) Extract(ctx context.Context, file *domain.RawFile, ct domain.ContentType) ([]domain.Element, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	if !e.Supports(ct) {
		return nil, fmt.Errorf("poppler: %s: %w", ct, domain.ErrUnsupportedType)
	}

	tmp, err := os.CreateTemp("", "sercha-rag-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("poppler: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(file.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("poppler: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("poppler: close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, e.binary, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("poppler: pdftotext failed: %w", err)
	}

	var elements []domain.Element
	for i, page := range strings.Split(string(out), "\f") {
		elements = append(elements, basic.Paragraphs(page, i+1)...)
	}
	return elements, nil
}
