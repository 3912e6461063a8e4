package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, view, delete, or reprocess ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list [scope]",
	Short: "List documents in a scope",
	Long:  `Lists the documents in a scope. Without a scope every document is listed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDetailsCmd = &cobra.Command{
	Use:   "details [doc-id]",
	Short: "Show document metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDetails,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Removes a document with its chunks, stored source and vectors.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentReprocessCmd = &cobra.Command{
	Use:   "reprocess [doc-id]",
	Short: "Re-run the pipeline on a document",
	Long: `Re-extracts, re-chunks and re-embeds a document from its stored source.
The previous chunks stay searchable until the new set replaces them.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentReprocess,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDetailsCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentReprocessCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	scope := ""
	if len(args) > 0 {
		scope = args[0]
	}

	docs, err := documentService.List(cmd.Context(), scope)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		if scope == "" {
			cmd.Println("No documents found.")
		} else {
			cmd.Printf("No documents found for scope: %s\n", scope)
		}
		return nil
	}

	r := newRenderer(cmd)
	if scope != "" {
		cmd.Printf("%s\n\n", r.Title("Documents for scope "+scope+":"))
	} else {
		cmd.Printf("%s\n\n", r.Title("Documents:"))
	}
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    File:   %s\n", docs[i].Filename)
		if scope == "" {
			cmd.Printf("    Scope:  %s\n", docs[i].Scope)
		}
		cmd.Printf("    State:  %s\n", r.State(&docs[i]))
		cmd.Printf("    Chunks: %d\n", docs[i].ChunkCount)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	r := newRenderer(cmd)
	cmd.Printf("%s %s\n\n", r.Title("Document:"), doc.ID)
	cmd.Printf("  File:     %s\n", doc.Filename)
	cmd.Printf("  Scope:    %s\n", doc.Scope)
	cmd.Printf("  Type:     %s\n", doc.ContentType)
	cmd.Printf("  State:    %s\n", r.State(doc))
	cmd.Printf("  Chunks:   %d\n", doc.ChunkCount)
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	if doc.LastError != "" {
		cmd.Printf("  Error:    %s\n", doc.LastError)
	}

	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := documentService.GetContent(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(content)
	return nil
}

func runDocumentDetails(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	details, err := documentService.GetDetails(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document details: %w", err)
	}

	r := newRenderer(cmd)
	cmd.Printf("%s %s\n\n", r.Title("Document Details:"), details.ID)
	cmd.Printf("  File:           %s\n", details.Filename)
	cmd.Printf("  Scope:          %s\n", details.Scope)
	cmd.Printf("  Type:           %s\n", details.ContentType)
	cmd.Printf("  Size:           %d bytes\n", details.Size)
	cmd.Printf("  State:          %s\n", details.State)
	cmd.Printf("  Revision:       %d\n", details.Revision)
	cmd.Printf("  Chunks:         %d\n", details.ChunkCount)
	cmd.Printf("  Index status:   %s\n", details.IndexStatus)
	cmd.Printf("  Failed batches: %d\n", details.FailedBatches)
	cmd.Printf("  Embedding:      %s\n", details.Embedding)
	if details.LastError != "" {
		cmd.Printf("  Last error:     %s\n", details.LastError)
	}
	cmd.Printf("  Created:        %s\n", details.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:        %s\n", details.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(details.Metadata) > 0 {
		keys := make([]string, 0, len(details.Metadata))
		for k := range details.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		cmd.Println("\n  Metadata:")
		for _, k := range keys {
			cmd.Printf("    %s: %s\n", k, details.Metadata[k])
		}
	}

	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	if err := documentService.Delete(cmd.Context(), docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", docID)
	return nil
}

func runDocumentReprocess(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docID := args[0]
	cmd.Printf("Reprocessing document %s...\n", docID)

	result, err := ingestService.Reprocess(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("failed to reprocess document: %w", err)
	}

	printIngestResult(cmd, newRenderer(cmd), result)
	return nil
}
