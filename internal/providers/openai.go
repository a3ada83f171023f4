package providers

import (
	"context"
	"errors"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

// OpenAIClient implements engine.LanguageModel against the chat completions API.
// It also serves OpenAI-compatible endpoints (Kimi, Gemini, LM Studio, ...)
// through a custom base URL.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	baseURL     string
	temperature float32
	maxTokens   int
}

// NewOpenAIClient creates a client for modelName. An empty baseURL uses the
// official endpoint.
func NewOpenAIClient(apiKey, modelName, baseURL string, params GenerationParams) (*OpenAIClient, error) {
	if modelName == "" {
		return nil, errors.New("openai: model name is required")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if params.HTTPClient != nil {
		config.HTTPClient = params.HTTPClient
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(config),
		model:       modelName,
		baseURL:     baseURL,
		temperature: params.Temperature,
		maxTokens:   params.MaxTokens,
	}, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.model }

// Generate implements engine.LanguageModel.
func (c *OpenAIClient) Generate(ctx context.Context, messages []engine.ChatMessage, stop []string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
		Stop:     stop,
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}
	t := c.temperature
	req.Temperature = &t

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", wrapError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// toOpenAIMessages keeps every message in order. Observations stay system
// messages; the chat completions API accepts system turns anywhere.
func toOpenAIMessages(messages []engine.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case engine.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case engine.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}
