package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	searchScope    string
	searchLimit    int
	searchMinScore float64
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a scope for relevant passages",
	Long: `Embeds the query and ranks the scope's chunks by cosine similarity.
Only passages at or above the relevance floor are returned, best first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchScope, "scope", "s", "", "scope to search (required)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "relevance floor override")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	_ = searchCmd.MarkFlagRequired("scope")
	rootCmd.AddCommand(searchCmd)
}

// searchResult is the JSON form of a ranked chunk.
type searchResult struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkID    string  `json:"chunk_id"`
	Position   int     `json:"position"`
	Page       int     `json:"page,omitempty"`
	Section    string  `json:"section,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Scope:    searchScope,
		Limit:    searchLimit,
		MinScore: searchMinScore,
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RankedChunk) error {
	out := make([]searchResult, 0, len(results))
	for _, r := range results {
		out = append(out, searchResult{
			DocumentID: r.Document.ID,
			Filename:   r.Document.Filename,
			ChunkID:    r.Chunk.ID,
			Position:   r.Chunk.Position,
			Page:       r.Chunk.PageNumber(),
			Section:    r.Chunk.Section(),
			Score:      r.Score,
			Content:    r.Chunk.Content,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RankedChunk) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	r := newRenderer(cmd)
	cmd.Println(r.Title("Results:"))
	cmd.Println()
	for i, res := range results {
		// Format: [N] filename (score)
		cmd.Printf("  [%d] %s (%s)\n", i+1, res.Document.Filename, r.Score(res.Score))
		location := fmt.Sprintf("chunk %d", res.Chunk.Position)
		if page := res.Chunk.PageNumber(); page > 0 {
			location += fmt.Sprintf(", page %d", page)
		}
		if section := res.Chunk.Section(); section != "" {
			location += ", " + section
		}
		cmd.Printf("      %s\n", r.Muted(location))
		cmd.Printf("      %s\n", r.Passage(res.Chunk.Content, 200))
		cmd.Println()
	}
	return nil
}
