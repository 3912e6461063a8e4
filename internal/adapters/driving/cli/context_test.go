package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestContextCmd_Use(t *testing.T) {
	assert.Equal(t, "context [message...]", contextCmd.Use)
}

func TestContextCmd_InsertsContext(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "context", "--scope", "conv-1", "system: Be brief.", "How much leave do I get?")

	require.NoError(t, err)
	assert.Equal(t, "conv-1", mocks.context.scope)
	assert.Contains(t, out, "[system]\nBe brief.")
	assert.Contains(t, out, "Relevant context:")
	assert.Contains(t, out, "[user]\nHow much leave do I get?")
	assert.Less(t, strings.Index(out, "Relevant context:"), strings.Index(out, "[user]"))
	assert.NotContains(t, out, "conversation unchanged")
}

func TestContextCmd_NoResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.context.inject = ""

	out, err := execute(t, "context", "--scope", "conv-1", "hello")

	require.NoError(t, err)
	assert.Contains(t, out, "No relevant passages found; conversation unchanged.")
}

func TestContextCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { contextJSON = false }()

	out, err := execute(t, "context", "--scope", "conv-1", "--json", "leave?")

	require.NoError(t, err)
	assert.Contains(t, out, `"role": "system"`)
	assert.Contains(t, out, `"role": "user"`)
	assert.Contains(t, out, `"content": "leave?"`)
}

func TestContextCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.context.err = errors.New("boom")

	_, err := execute(t, "context", "--scope", "conv-1", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "context assembly failed")
}

func TestParseTurn(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.ChatMessage
	}{
		{"hello", domain.ChatMessage{Role: domain.RoleUser, Content: "hello"}},
		{"user: hi", domain.ChatMessage{Role: domain.RoleUser, Content: "hi"}},
		{"system:Be brief.", domain.ChatMessage{Role: domain.RoleSystem, Content: "Be brief."}},
		{"assistant: Sure.", domain.ChatMessage{Role: domain.RoleAssistant, Content: "Sure."}},
		{"note: not a role", domain.ChatMessage{Role: domain.RoleUser, Content: "note: not a role"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseTurn(tt.input))
		})
	}
}
