package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Connector reads files from a source and reports changes to them.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the source exists and is readable.
	Validate(ctx context.Context) error

	// Scan reports every current file as a created change.
	// Both channels are closed when the scan finishes.
	Scan(ctx context.Context) (<-chan domain.FileChange, <-chan error)

	// Watch reports changes until the context is cancelled or Close is called.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Close releases resources.
	Close() error
}
