package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

const uriScheme = "sercha-rag://"

const (
	mimeJSON = "application/json"
	mimeText = "text/plain"
)

// resourceKind identifies which resource a URI addresses.
type resourceKind int

const (
	resourceUnknown resourceKind = iota
	resourceAllDocuments
	resourceScopeDocuments
	resourceContent
	resourceDetails
)

// DetailsOutput is the JSON body of the document details resource.
type DetailsOutput struct {
	DocumentOutput
	Size          int64             `json:"size"`
	FailedBatches int               `json:"failed_batches"`
	CreatedAt     string            `json:"created_at"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Every uploaded document with its processing state",
		MIMEType:    mimeJSON,
	}, s.readResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "scopes/{scope}/documents",
		Name:        "scope-documents",
		Description: "Documents uploaded into one scope",
		MIMEType:    mimeJSON,
	}, s.readResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-content",
		Description: "Extracted text of a document, chunk by chunk",
		MIMEType:    mimeText,
	}, s.readResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/details",
		Name:        "document-details",
		Description: "Processing details and extraction metadata of a document",
		MIMEType:    mimeJSON,
	}, s.readResource)
}

// readResource dispatches every resource read on the URI shape.
func (s *Server) readResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	kind, arg := parseResourceURI(uri)
	if kind == resourceUnknown {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if s.ports.Document == nil {
		if kind == resourceAllDocuments || kind == resourceScopeDocuments {
			return textResult(uri, mimeJSON, "[]"), nil
		}
		return nil, mcp.ResourceNotFoundError(uri)
	}

	switch kind {
	case resourceAllDocuments, resourceScopeDocuments:
		docs, err := s.ports.Document.List(ctx, arg)
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		out := make([]DocumentOutput, len(docs))
		for i := range docs {
			out[i] = documentOutput(&docs[i])
		}
		return jsonResult(uri, out)

	case resourceContent:
		content, err := s.ports.Document.GetContent(ctx, arg)
		if err != nil {
			return nil, fmt.Errorf("getting document content: %w", err)
		}
		return textResult(uri, mimeText, content), nil

	default:
		details, err := s.ports.Document.GetDetails(ctx, arg)
		if err != nil {
			return nil, fmt.Errorf("getting document details: %w", err)
		}
		return jsonResult(uri, detailsOutput(details))
	}
}

// parseResourceURI maps a URI to its resource kind and path argument.
func parseResourceURI(uri string) (resourceKind, string) {
	path, ok := strings.CutPrefix(uri, uriScheme)
	if !ok {
		return resourceUnknown, ""
	}
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && parts[0] == "documents":
		return resourceAllDocuments, ""
	case len(parts) == 3 && parts[0] == "scopes" && parts[1] != "" && parts[2] == "documents":
		return resourceScopeDocuments, parts[1]
	case len(parts) == 2 && parts[0] == "documents" && parts[1] != "":
		return resourceContent, parts[1]
	case len(parts) == 3 && parts[0] == "documents" && parts[1] != "" && parts[2] == "details":
		return resourceDetails, parts[1]
	}
	return resourceUnknown, ""
}

func detailsOutput(d *driving.DocumentDetails) DetailsOutput {
	out := DetailsOutput{
		DocumentOutput: DocumentOutput{
			ID:          d.ID,
			Filename:    d.Filename,
			Scope:       d.Scope,
			ContentType: string(d.ContentType),
			State:       string(d.State),
			LastError:   d.LastError,
			Revision:    d.Revision,
			ChunkCount:  d.ChunkCount,
			IndexStatus: string(d.IndexStatus),
			UpdatedAt:   d.UpdatedAt.Format(time.RFC3339),
		},
		Size:          d.Size,
		FailedBatches: d.FailedBatches,
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		Metadata:      d.Metadata,
	}
	if !d.Embedding.IsZero() {
		out.Embedding = d.Embedding.String()
	}
	return out
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return textResult(uri, mimeJSON, string(data)), nil
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}
