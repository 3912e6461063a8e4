package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var (
	uploadScope    string
	uploadStrategy string
	uploadAsync    bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Ingest a file into a scope",
	Long: `Extracts, chunks and embeds a file, then writes its vectors.

The command waits for the run to finish unless --async is given, in which
case the pending document ID is printed and processing continues until the
command exits.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadScope, "scope", "s", "", "scope the document belongs to (required)")
	uploadCmd.Flags().StringVar(&uploadStrategy, "strategy", "", "chunk strategy: auto, fixed, semantic, markdown or code")
	uploadCmd.Flags().BoolVar(&uploadAsync, "async", false, "return once the document is registered")
	_ = uploadCmd.MarkFlagRequired("scope")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	req := driving.UploadRequest{
		File: domain.RawFile{
			Filename: filepath.Base(path),
			MIMEType: filesystem.DetectMIMEType(path),
			Content:  content,
		},
		Scope:    uploadScope,
		Strategy: domain.ChunkStrategy(uploadStrategy),
	}
	r := newRenderer(cmd)

	if uploadAsync {
		doc, err := ingestService.Submit(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		cmd.Printf("Submitted %s as %s (%s)\n", doc.Filename, doc.ID, r.State(doc))
		ingestService.Wait()
		return nil
	}

	result, err := ingestService.Upload(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	printIngestResult(cmd, r, result)
	return nil
}

func printIngestResult(cmd *cobra.Command, r *renderer, result *driving.IngestResult) {
	doc := result.Document
	cmd.Printf("%s %s\n\n", r.Title("Document"), doc.ID)
	cmd.Printf("  File:      %s\n", doc.Filename)
	cmd.Printf("  Scope:     %s\n", doc.Scope)
	cmd.Printf("  State:     %s\n", r.State(doc))
	cmd.Printf("  Chunks:    %d\n", doc.ChunkCount)
	if method, ok := doc.Metadata[domain.MetaExtractionMethod].(string); ok {
		cmd.Printf("  Extractor: %s\n", method)
	}
	if !doc.Embedding.IsZero() {
		cmd.Printf("  Embedding: %s\n", doc.Embedding)
	}
	if doc.LastError != "" {
		cmd.Printf("  Error:     %s\n", doc.LastError)
	}

	failed := 0
	for _, b := range result.Batches {
		if b.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		cmd.Printf("  Batches:   %d of %d failed\n", failed, len(result.Batches))
	}
	for _, w := range result.Warnings {
		cmd.Printf("  %s %s\n", r.Warning("warning:"), w)
	}
}
