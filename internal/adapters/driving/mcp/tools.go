package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// SearchInput is the input schema for the search_documents tool.
type SearchInput struct {
	Query    string  `json:"query" jsonschema:"the question or phrase to find relevant passages for"`
	Scope    string  `json:"scope" jsonschema:"the conversation or collection whose documents are searched"`
	Limit    int     `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
	MinScore float64 `json:"min_score,omitempty" jsonschema:"relevance floor between 0 and 1 (default from settings)"`
}

// SearchOutput is the output schema for the search_documents tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single ranked passage.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkID    string  `json:"chunk_id"`
	Position   int     `json:"position"`
	Page       int     `json:"page,omitempty"`
	Section    string  `json:"section,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// UploadInput is the input schema for the upload_document tool.
type UploadInput struct {
	Filename      string `json:"filename" jsonschema:"file name including extension, used to detect the content type"`
	Scope         string `json:"scope" jsonschema:"the conversation or collection to add the document to"`
	Content       string `json:"content,omitempty" jsonschema:"plain text content of the file"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"base64 encoded bytes for binary files such as PDF or DOCX"`
	MIMEType      string `json:"mime_type,omitempty" jsonschema:"declared MIME type if known"`
	Strategy      string `json:"strategy,omitempty" jsonschema:"chunk strategy: auto, fixed, semantic, markdown or code"`
}

// DocumentIDInput identifies a single document.
type DocumentIDInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document identifier"`
}

// ListInput is the input schema for the list_documents tool.
type ListInput struct {
	Scope string `json:"scope,omitempty" jsonschema:"scope to list; empty lists every scope"`
}

// DocumentOutput summarises a document.
type DocumentOutput struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Scope       string `json:"scope"`
	ContentType string `json:"content_type"`
	State       string `json:"state"`
	LastError   string `json:"last_error,omitempty"`
	Revision    int    `json:"revision"`
	ChunkCount  int    `json:"chunk_count"`
	IndexStatus string `json:"index_status,omitempty"`
	Embedding   string `json:"embedding,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

// IngestOutput reports an ingestion run.
type IngestOutput struct {
	Document      DocumentOutput `json:"document"`
	Method        string         `json:"extraction_method,omitempty"`
	FailedBatches int            `json:"failed_batches"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// ListOutput is the output schema for the list_documents tool.
type ListOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DeleteOutput is the output schema for the delete_document tool.
type DeleteOutput struct {
	Deleted string `json:"deleted"`
}

// MessageInput is one conversation turn.
type MessageInput struct {
	Role    string `json:"role" jsonschema:"system, user or assistant"`
	Content string `json:"content" jsonschema:"the message text"`
}

// ContextInput is the input schema for the assemble_context tool.
type ContextInput struct {
	Scope    string         `json:"scope" jsonschema:"the scope whose documents supply the context"`
	Messages []MessageInput `json:"messages" jsonschema:"the conversation, oldest first; the last user turn is the query"`
}

// ContextOutput is the output schema for the assemble_context tool.
type ContextOutput struct {
	Messages []MessageInput `json:"messages"`
	Injected bool           `json:"injected"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Find passages in a scope's uploaded documents that are relevant to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "upload_document",
		Description: "Upload a file into a scope and index it for search",
	}, s.handleUpload)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded documents and their processing state",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Show a document's processing state, index status and chunk count",
	}, s.handleGet)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reprocess_document",
		Description: "Re-run extraction, chunking and embedding on a stored document",
	}, s.handleReprocess)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a document with its chunks and vectors",
	}, s.handleDelete)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assemble_context",
		Description: "Insert the passages relevant to the last user turn into a conversation",
	}, s.handleAssembleContext)
}

// handleSearch handles the search_documents tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Scope:    input.Scope,
		Limit:    input.Limit,
		MinScore: input.MinScore,
	}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		chunk := results[i].Chunk
		output.Results[i] = SearchResultOutput{
			DocumentID: results[i].Document.ID,
			Filename:   results[i].Document.Filename,
			ChunkID:    chunk.ID,
			Position:   chunk.Position,
			Page:       chunk.PageNumber(),
			Section:    chunk.Section(),
			Score:      results[i].Score,
			Content:    chunk.Content,
		}
	}

	return nil, output, nil
}

// handleUpload handles the upload_document tool invocation.
func (s *Server) handleUpload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UploadInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, ErrMissingIngestService
	}

	content := []byte(input.Content)
	if input.ContentBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(input.ContentBase64)
		if err != nil {
			return nil, IngestOutput{}, fmt.Errorf("decoding content_base64: %w", err)
		}
		content = decoded
	}

	result, err := s.ports.Ingest.Upload(ctx, driving.UploadRequest{
		File: domain.RawFile{
			Filename: input.Filename,
			MIMEType: input.MIMEType,
			Content:  content,
		},
		Scope:    input.Scope,
		Strategy: domain.ChunkStrategy(input.Strategy),
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, ingestOutput(result), nil
}

// handleList handles the list_documents tool invocation.
func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	if s.ports.Document == nil {
		return nil, ListOutput{}, ErrMissingDocumentService
	}

	docs, err := s.ports.Document.List(ctx, input.Scope)
	if err != nil {
		return nil, ListOutput{}, err
	}

	output := ListOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = documentOutput(&docs[i])
	}
	return nil, output, nil
}

// handleGet handles the get_document tool invocation.
func (s *Server) handleGet(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	if s.ports.Document == nil {
		return nil, DocumentOutput{}, ErrMissingDocumentService
	}

	doc, err := s.ports.Document.Get(ctx, input.DocumentID)
	if err != nil {
		return nil, DocumentOutput{}, err
	}
	return nil, documentOutput(doc), nil
}

// handleReprocess handles the reprocess_document tool invocation.
func (s *Server) handleReprocess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, ErrMissingIngestService
	}

	result, err := s.ports.Ingest.Reprocess(ctx, input.DocumentID)
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, ingestOutput(result), nil
}

// handleDelete handles the delete_document tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if s.ports.Document == nil {
		return nil, DeleteOutput{}, ErrMissingDocumentService
	}

	if err := s.ports.Document.Delete(ctx, input.DocumentID); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{Deleted: input.DocumentID}, nil
}

// handleAssembleContext handles the assemble_context tool invocation.
func (s *Server) handleAssembleContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	if s.ports.Context == nil {
		return nil, ContextOutput{}, ErrMissingContextAssembler
	}

	messages := make([]domain.ChatMessage, len(input.Messages))
	for i, m := range input.Messages {
		messages[i] = domain.ChatMessage{Role: m.Role, Content: m.Content}
	}

	assembled, err := s.ports.Context.Assemble(ctx, messages, input.Scope)
	if err != nil {
		return nil, ContextOutput{}, err
	}

	output := ContextOutput{
		Messages: make([]MessageInput, len(assembled)),
		Injected: len(assembled) > len(messages),
	}
	for i, m := range assembled {
		output.Messages[i] = MessageInput{Role: m.Role, Content: m.Content}
	}
	return nil, output, nil
}

func ingestOutput(result *driving.IngestResult) IngestOutput {
	output := IngestOutput{
		Document: documentOutput(result.Document),
		Warnings: result.Warnings,
	}
	if method, ok := result.Document.Metadata[domain.MetaExtractionMethod].(string); ok {
		output.Method = method
	}
	for _, b := range result.Batches {
		if b.Err != nil {
			output.FailedBatches++
		}
	}
	return output
}

func documentOutput(doc *domain.Document) DocumentOutput {
	out := DocumentOutput{
		ID:          doc.ID,
		Filename:    doc.Filename,
		Scope:       doc.Scope,
		ContentType: string(doc.ContentType),
		State:       string(doc.State),
		LastError:   doc.LastError,
		Revision:    doc.Revision,
		ChunkCount:  doc.ChunkCount,
		IndexStatus: string(doc.IndexStatus),
		UpdatedAt:   doc.UpdatedAt.Format(time.RFC3339),
	}
	if !doc.Embedding.IsZero() {
		out.Embedding = doc.Embedding.String()
	}
	return out
}
