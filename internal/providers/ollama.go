package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

// OllamaClient implements engine.LanguageModel against a local Ollama server
// using the native /api/chat endpoint without streaming.
type OllamaClient struct {
	client  *api.Client
	model   string
	options map[string]any
}

// NewOllamaClient creates a client for modelName. An empty baseURL reads
// OLLAMA_HOST from the environment.
func NewOllamaClient(modelName, baseURL string, params GenerationParams) (*OllamaClient, error) {
	if modelName == "" {
		return nil, errors.New("ollama: model name is required")
	}

	var client *api.Client
	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1"))
		if err != nil {
			return nil, fmt.Errorf("ollama: invalid base URL: %w", err)
		}
		httpClient := params.HTTPClient
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		client = api.NewClient(u, httpClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama: %w", err)
		}
	}

	options := map[string]any{"temperature": params.Temperature}
	if params.MaxTokens > 0 {
		options["num_predict"] = params.MaxTokens
	}

	return &OllamaClient{client: client, model: modelName, options: options}, nil
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string { return c.model }

// Generate implements engine.LanguageModel.
func (c *OllamaClient) Generate(ctx context.Context, messages []engine.ChatMessage, stop []string) (string, error) {
	apiMessages := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		apiMessages = append(apiMessages, api.Message{Role: string(msg.Role), Content: msg.Content})
	}

	options := make(map[string]any, len(c.options)+1)
	for k, v := range c.options {
		options[k] = v
	}
	if len(stop) > 0 {
		options["stop"] = stop
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: apiMessages,
		Options:  options,
		Stream:   &stream,
	}

	var sb strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", wrapError("ollama", err)
	}
	return sb.String(), nil
}
