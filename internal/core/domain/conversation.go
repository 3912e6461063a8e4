package domain

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation sent to a language model.
type ChatMessage struct {
	// Role is system, user or assistant.
	Role string

	// Content is the message text.
	Content string
}

// LastUserTurn returns the index of the final user message, or -1.
func LastUserTurn(messages []ChatMessage) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return i
		}
	}
	return -1
}
