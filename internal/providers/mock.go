package providers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

// MockIntroduction is the reply of MockModel when no heuristic matches.
const MockIntroduction = "I am a Mock Agent. I can chat with you, but I don't know much without my tools. Try asking 'What is Python?'"

var (
	arithmeticRe  = regexp.MustCompile(`\(?\d+(?:\.\d+)?(?:\s*(?:\*\*|//|[-+*/%])\s*\(?\s*-?\d+(?:\.\d+)?\s*\)?)+`)
	weatherCityRe = regexp.MustCompile(`\b(?:in|for|at)\s+([\p{L}][\p{L} .'-]*)`)
)

// MockModel is a deterministic offline model. It inspects the last message
// and either answers from an observation or emits an ACTION line for one of
// the built-in tools, which is enough to drive the whole loop without a
// network connection.
type MockModel struct{}

// NewMockModel returns a MockModel.
func NewMockModel() *MockModel { return &MockModel{} }

// Model returns the name reported for the mock backend.
func (m *MockModel) Model() string { return "mock" }

// Generate implements engine.LanguageModel.
func (m *MockModel) Generate(ctx context.Context, messages []engine.ChatMessage, _ []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return MockIntroduction, nil
	}

	last := messages[len(messages)-1].Content
	if strings.Contains(last, "Observation:") {
		observation := strings.TrimSpace(strings.ReplaceAll(last, "Observation:", ""))
		return "Based on my research, " + truncateRunes(observation, 100) + "... I hope that answers your question.", nil
	}

	lower := strings.ToLower(last)
	switch {
	case strings.Contains(lower, "my name is"):
		return fmt.Sprintf("ACTION: Remember [profile: name is %s]", afterLast(lower, "my name is")), nil
	case strings.Contains(lower, "i like"):
		return fmt.Sprintf("ACTION: Remember [preference: likes %s]", afterLast(lower, "i like")), nil
	case containsAny(lower, "research", "study", "deeply"):
		topic := strings.TrimSpace(removeAll(lower, "research", "deeply", "study"))
		return fmt.Sprintf("ACTION: DeepResearch [%s]", topic), nil
	case containsAny(lower, "draw", "generate image", "create an image"):
		prompt := strings.TrimSpace(removeAll(lower, "draw", "generate image", "create an image"))
		if prompt == "" {
			prompt = "something amazing"
		}
		return fmt.Sprintf("ACTION: ImageGen [%s]", prompt), nil
	case containsAny(lower, "python", "agent"):
		return fmt.Sprintf("ACTION: Search [%s]", lower), nil
	}

	if expr := arithmeticRe.FindString(last); expr != "" {
		return fmt.Sprintf("ACTION: Calculator [%s]", strings.TrimSpace(expr)), nil
	}
	if strings.Contains(lower, "weather") {
		city := "Beijing"
		if m := weatherCityRe.FindStringSubmatch(last); m != nil {
			city = strings.TrimRight(strings.TrimSpace(m[1]), "?.!")
		}
		return fmt.Sprintf("ACTION: Weather [%s]", city), nil
	}
	if containsAny(lower, "what time", "date", "today") {
		return "ACTION: DateTime [now]", nil
	}

	return MockIntroduction, nil
}

func afterLast(s, sep string) string {
	parts := strings.Split(s, sep)
	return strings.TrimSpace(parts[len(parts)-1])
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func removeAll(s string, subs ...string) string {
	for _, sub := range subs {
		s = strings.ReplaceAll(s, sub, "")
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
