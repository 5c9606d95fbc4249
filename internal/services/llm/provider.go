package llm

import (
	"context"
	"strings"

	"faceless/internal/worldstate"
)

// Chat message roles shared by every provider dialect.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn in provider-neutral form.
type Message struct {
	Role    string
	Content string
}

// Provider generates one assistant response for a conversation.
type Provider interface {
	Name() string
	Generate(ctx context.Context, messages []Message) (string, error)
}

// BuildMessages assembles the provider payload: the system contract, the
// retained history as alternating user/assistant turns, then the new user
// text. History is already bounded by the world state, so the payload
// cannot grow without limit.
func BuildMessages(systemPrompt string, history []worldstate.ChatTurn, userText string) []Message {
	messages := make([]Message, 0, len(history)*2+2)
	messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		if text := strings.TrimSpace(turn.UserText); text != "" {
			messages = append(messages, Message{Role: RoleUser, Content: text})
		}
		if text := strings.TrimSpace(turn.AssistantText); text != "" {
			messages = append(messages, Message{Role: RoleAssistant, Content: text})
		}
	}
	messages = append(messages, Message{Role: RoleUser, Content: userText})
	return messages
}
