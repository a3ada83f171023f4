package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
	"github.com/ChamsBouzaiene/chatagent/internal/prompts"
)

const (
	defaultTitle   = "New Session"
	maxTitleRunes  = 60
	fallbackWords  = 6
	titleTrimChars = " \t\n\"'`.,;:!?*#"
)

// Summarizer names sessions with the help of the language model.
type Summarizer struct {
	llm engine.LanguageModel
}

// NewSummarizer creates a new session summarizer.
func NewSummarizer(llm engine.LanguageModel) *Summarizer {
	return &Summarizer{llm: llm}
}

// GenerateTitle asks the model for a 3-5 word title based on the first user
// message. When the model fails or answers with nothing usable the title is
// derived from the message itself; a model error is still returned so the
// caller can log it.
func (s *Summarizer) GenerateTitle(ctx context.Context, history []engine.ChatMessage) (string, error) {
	first := firstUserMessage(history)
	if first == "" {
		return defaultTitle, nil
	}
	fallback := FallbackTitle(first)

	b, err := prompts.NewPromptBuilder(prompts.DefaultRegistry(), prompts.SessionTitleID, "")
	if err != nil {
		return fallback, err
	}
	msgs := []engine.ChatMessage{
		{Role: engine.RoleUser, Content: b.SetVariable("message", first).Build()},
	}
	resp, err := s.llm.Generate(ctx, msgs, nil)
	if err != nil {
		return fallback, fmt.Errorf("failed to generate title: %w", err)
	}

	title := cleanTitle(resp)
	// Models that follow the ReAct prompt elsewhere sometimes answer with an action.
	if title == "" || strings.HasPrefix(strings.ToUpper(title), "ACTION") {
		return fallback, nil
	}
	return title, nil
}

func firstUserMessage(history []engine.ChatMessage) string {
	for _, m := range history {
		if m.Role == engine.RoleUser {
			if c := strings.TrimSpace(m.Content); c != "" {
				return c
			}
		}
	}
	return ""
}

// FallbackTitle builds a title from the first words of a message.
func FallbackTitle(message string) string {
	words := strings.Fields(message)
	if len(words) == 0 {
		return defaultTitle
	}
	suffix := ""
	if len(words) > fallbackWords {
		words = words[:fallbackWords]
		suffix = "..."
	}
	return truncateTitle(strings.Join(words, " ")) + suffix
}

func cleanTitle(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	line = strings.TrimPrefix(strings.TrimSpace(line), "Title:")
	return truncateTitle(strings.Join(strings.Fields(strings.Trim(line, titleTrimChars)), " "))
}

func truncateTitle(s string) string {
	r := []rune(s)
	if len(r) <= maxTitleRunes {
		return s
	}
	return strings.TrimSpace(string(r[:maxTitleRunes]))
}
