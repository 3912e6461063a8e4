package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	contextScope string
	contextJSON  bool
)

var contextCmd = &cobra.Command{
	Use:   "context [message...]",
	Short: "Inject retrieved passages into a conversation",
	Long: `Builds a conversation from the arguments, retrieves passages for the
last user turn and prints the conversation with the context message inserted.

Each argument is one turn. Prefix a turn with "system:", "user:" or
"assistant:" to set its role; unprefixed turns are user turns.

Example:
  sercha-rag context --scope conv-1 "system: Be brief." "How much leave do I get?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVarP(&contextScope, "scope", "s", "", "scope to retrieve from (required)")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output the conversation as JSON")
	_ = contextCmd.MarkFlagRequired("scope")
	rootCmd.AddCommand(contextCmd)
}

// chatMessage is the JSON form of a conversation turn.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func runContext(cmd *cobra.Command, args []string) error {
	if contextAssembler == nil {
		return errors.New("context assembler not configured")
	}

	messages := make([]domain.ChatMessage, 0, len(args))
	for _, arg := range args {
		messages = append(messages, parseTurn(arg))
	}

	assembled, err := contextAssembler.Assemble(cmd.Context(), messages, contextScope)
	if err != nil {
		return fmt.Errorf("context assembly failed: %w", err)
	}

	if contextJSON {
		out := make([]chatMessage, 0, len(assembled))
		for _, m := range assembled {
			out = append(out, chatMessage{Role: m.Role, Content: m.Content})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal conversation: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	r := newRenderer(cmd)
	for _, m := range assembled {
		cmd.Printf("%s\n%s\n\n", r.Title("["+m.Role+"]"), m.Content)
	}
	if len(assembled) == len(messages) {
		cmd.Println(r.Muted("No relevant passages found; conversation unchanged."))
	}
	return nil
}

// parseTurn splits an optional "role:" prefix from a turn.
func parseTurn(arg string) domain.ChatMessage {
	for _, role := range []string{domain.RoleSystem, domain.RoleUser, domain.RoleAssistant} {
		if rest, ok := strings.CutPrefix(arg, role+":"); ok {
			return domain.ChatMessage{Role: role, Content: strings.TrimSpace(rest)}
		}
	}
	return domain.ChatMessage{Role: domain.RoleUser, Content: arg}
}
