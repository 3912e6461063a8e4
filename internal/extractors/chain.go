package extractors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/extractors/basic"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Chain implements the interface.
var _ driven.ExtractionChain = (*Chain)(nil)

// errNoMethod is recorded when no method could be attempted at all.
var errNoMethod = errors.New("no extraction method available")

// Chain runs extractors in order until one returns elements.
type Chain struct {
	extractors []driven.Extractor
	timeout    time.Duration
}

// NewChain creates a chain from an ordered extractor list.
// A basic extractor is appended when the list does not end in one.
// A zero timeout uses domain.DefaultAttemptTimeout.
func NewChain(timeout time.Duration, extractors ...driven.Extractor) *Chain {
	if timeout <= 0 {
		timeout = domain.DefaultAttemptTimeout
	}
	hasBasic := false
	for _, e := range extractors {
		if e.Method() == domain.ExtractionBasic {
			hasBasic = true
		}
	}
	if !hasBasic {
		extractors = append(extractors, basic.New())
	}
	return &Chain{extractors: extractors, timeout: timeout}
}

// Methods returns the configured method order.
func (c *Chain) Methods() []domain.ExtractionMethod {
	methods := make([]domain.ExtractionMethod, len(c.extractors))
	for i, e := range c.extractors {
		methods[i] = e.Method()
	}
	return methods
}

// Extract tries each method in order. Unsupported content types go
// straight to the basic method.
func (c *Chain) Extract(ctx context.Context, file *domain.RawFile, ct domain.ContentType) *domain.ExtractionResult {
	result := &domain.ExtractionResult{}
	lastErr := errNoMethod

	for _, e := range c.extractors {
		method := e.Method()
		if ct == domain.ContentUnsupported && method != domain.ExtractionBasic {
			continue
		}
		if !e.Supports(ct) {
			continue
		}

		elements, err := c.attempt(ctx, e, file, ct)
		result.Attempts = append(result.Attempts, domain.ExtractionAttempt{Method: string(method), Err: err})
		if err == nil {
			logger.Debug("extraction: %s succeeded with %d elements", method, len(elements))
			result.Elements = elements
			result.Method = string(method)
			return result
		}
		logger.Warn("extraction: %s failed for %s: %v", method, filename(file), err)
		lastErr = err
	}

	result.Method = "diagnostic"
	result.Elements = []domain.Element{{
		Text: fmt.Sprintf("Could not extract text from %s (%d bytes): %v",
			filename(file), fileSize(file), lastErr),
		Type: domain.ElementDiagnostic,
	}}
	return result
}

// attempt runs one method. Non-basic methods are bounded by the chain
// timeout; a timeout or panic fails that method only.
func (c *Chain) attempt(ctx context.Context, e driven.Extractor, file *domain.RawFile, ct domain.ContentType) ([]domain.Element, error) {
	if e.Method() != domain.ExtractionBasic {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	type outcome struct {
		elements []domain.Element
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%s panicked: %v", e.Method(), r)}
			}
		}()
		elements, err := e.Extract(ctx, file, ct)
		done <- outcome{elements: elements, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		if !hasText(out.elements) {
			return nil, domain.ErrEmptyContent
		}
		return out.elements, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", e.Method(), ctx.Err())
	}
}

func hasText(elements []domain.Element) bool {
	for _, el := range elements {
		if strings.TrimSpace(el.Text) != "" {
			return true
		}
	}
	return false
}

func filename(file *domain.RawFile) string {
	if file == nil || file.Filename == "" {
		return "upload"
	}
	return file.Filename
}

func fileSize(file *domain.RawFile) int64 {
	if file == nil {
		return 0
	}
	return file.Size()
}
