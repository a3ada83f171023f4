package providers

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicClient implements engine.LanguageModel against the Messages API.
type AnthropicClient struct {
	client      *anthropic.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewAnthropicClient creates a client for modelName.
func NewAnthropicClient(apiKey, modelName, baseURL string, params GenerationParams) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if params.HTTPClient != nil {
		opts = append(opts, anthropic.WithHTTPClient(params.HTTPClient))
	}
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &AnthropicClient{
		client:      anthropic.NewClient(apiKey, opts...),
		model:       modelName,
		temperature: params.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string { return c.model }

// Generate implements engine.LanguageModel.
func (c *AnthropicClient) Generate(ctx context.Context, messages []engine.ChatMessage, stop []string) (string, error) {
	system, turns := splitAnthropicMessages(messages)
	if len(turns) == 0 {
		return "", errors.New("anthropic: no user or assistant messages to send")
	}

	msgs := make([]anthropic.Message, 0, len(turns))
	for _, t := range turns {
		role := anthropic.RoleUser
		if t.Role == engine.RoleAssistant {
			role = anthropic.RoleAssistant
		}
		msgs = append(msgs, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(t.Content)},
		})
	}

	temperature := c.temperature
	req := anthropic.MessagesRequest{
		Model:         anthropic.Model(c.model),
		Messages:      msgs,
		MaxTokens:     c.maxTokens,
		Temperature:   &temperature,
		StopSequences: stop,
	}
	if len(system) > 0 {
		parts := make([]anthropic.MessageSystemPart, 0, len(system))
		for _, s := range system {
			parts = append(parts, anthropic.MessageSystemPart{Type: "text", Text: s})
		}
		req.MultiSystem = parts
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", wrapError("anthropic", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}
	return sb.String(), nil
}

// splitAnthropicMessages moves the leading system messages into the system
// prompt. System messages later in the conversation (observations) are sent as
// user content, and consecutive turns with the same role are merged because the
// Messages API requires alternating roles starting with a user turn.
func splitAnthropicMessages(messages []engine.ChatMessage) ([]string, []engine.ChatMessage) {
	var system []string
	i := 0
	for ; i < len(messages) && messages[i].Role == engine.RoleSystem; i++ {
		system = append(system, messages[i].Content)
	}

	var turns []engine.ChatMessage
	for _, msg := range messages[i:] {
		role := msg.Role
		if role != engine.RoleAssistant {
			role = engine.RoleUser
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content += "\n\n" + msg.Content
			continue
		}
		if len(turns) == 0 && role == engine.RoleAssistant {
			turns = append(turns, engine.ChatMessage{Role: engine.RoleUser, Content: "(conversation continues)"})
		}
		turns = append(turns, engine.ChatMessage{Role: role, Content: msg.Content})
	}
	return system, turns
}
