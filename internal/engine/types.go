// Package engine implements a reason-then-act chat loop: the model is
// prompted with the available tools, may request one tool per response with
// an ACTION line, and sees the tool's observation before answering.
package engine

import (
	"context"
	"fmt"
)

// MessageRole represents the role of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is the provider-agnostic message we pass around.
type ChatMessage struct {
	Role    MessageRole `json:"role" yaml:"role"`
	Content string      `json:"content" yaml:"content"`
}

// Validate checks if the ChatMessage is valid.
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	return nil
}

// LanguageModel produces the next assistant message for a conversation.
// stop lists sequences at which generation should halt; backends that do not
// support them may ignore it.
type LanguageModel interface {
	Generate(ctx context.Context, messages []ChatMessage, stop []string) (string, error)
}

// ModelFunc adapts a plain function to LanguageModel.
type ModelFunc func(ctx context.Context, messages []ChatMessage, stop []string) (string, error)

func (f ModelFunc) Generate(ctx context.Context, messages []ChatMessage, stop []string) (string, error) {
	return f(ctx, messages, stop)
}

// MemoryReader supplies the long-term memory block rendered into the system
// prompt. An empty string means nothing is known about the user.
type MemoryReader interface {
	GetContext(ctx context.Context) (string, error)
}
