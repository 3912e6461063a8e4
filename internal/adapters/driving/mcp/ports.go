package mcp

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports holds the services the MCP server calls into.
// Only Search is required; tools backed by a missing port report it.
type Ports struct {
	Search   driving.SearchService
	Ingest   driving.IngestService
	Document driving.DocumentService
	Context  driving.ContextAssembler
}

// Validate reports a missing required port.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
