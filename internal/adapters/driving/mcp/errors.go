// Package mcp provides an MCP (Model Context Protocol) server adapter for Sercha RAG.
// It lets AI assistants search, upload and manage documents in a scope.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingDocumentService is returned by document tools when no document service is wired.
	ErrMissingDocumentService = errors.New("mcp: document service is not configured")

	// ErrMissingIngestService is returned by ingest tools when no ingest service is wired.
	ErrMissingIngestService = errors.New("mcp: ingest service is not configured")

	// ErrMissingContextAssembler is returned by assemble_context when no assembler is wired.
	ErrMissingContextAssembler = errors.New("mcp: context assembler is not configured")
)
