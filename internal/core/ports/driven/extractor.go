package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Extractor is one method of the extraction chain.
// It converts raw file bytes into structured text elements.
type Extractor interface {
	// Method names the extraction method.
	Method() domain.ExtractionMethod

	// Supports reports whether the method can handle the content type.
	Supports(ct domain.ContentType) bool

	// Extract returns the elements of the file in document order.
	// An error or an empty result makes the chain try the next method.
	Extract(ctx context.Context, file *domain.RawFile, ct domain.ContentType) ([]domain.Element, error)
}

// ExtractionChain runs extractors in order until one succeeds.
type ExtractionChain interface {
	// Extract never fails. When every method fails the result holds a
	// single diagnostic element describing the last error.
	Extract(ctx context.Context, file *domain.RawFile, ct domain.ContentType) *domain.ExtractionResult
}
