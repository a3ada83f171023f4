package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type capturedRequest struct {
	Path string
	Body map[string]any
}

func jsonServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

var conversation = []engine.ChatMessage{
	{Role: engine.RoleSystem, Content: "You are helpful."},
	{Role: engine.RoleUser, Content: "What is Python?"},
	{Role: engine.RoleAssistant, Content: "ACTION: Search [python]"},
	{Role: engine.RoleSystem, Content: "Observation: Python is a language."},
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv, req := jsonServer(t, http.StatusOK, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Python is a language."},"finish_reason":"stop"}]}`)

	c, err := NewOpenAIClient("sk-test", "gpt-4o-mini", srv.URL+"/v1", GenerationParams{Temperature: 0.7, MaxTokens: 64})
	require.NoError(t, err)

	got, err := c.Generate(context.Background(), conversation, []string{"Observation:"})
	require.NoError(t, err)
	assert.Equal(t, "Python is a language.", got)

	assert.Equal(t, "/v1/chat/completions", req.Path)
	assert.Equal(t, "gpt-4o-mini", req.Body["model"])
	assert.Equal(t, []any{"Observation:"}, req.Body["stop"])
	assert.EqualValues(t, 64, req.Body["max_tokens"])

	msgs, ok := req.Body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[3].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[2].(map[string]any)["role"])
}

func TestOpenAIClient_ErrorIsClassified(t *testing.T) {
	srv, _ := jsonServer(t, http.StatusTooManyRequests, `{"error":{"message":"rate limited","type":"requests"}}`)

	c, err := NewOpenAIClient("sk-test", "gpt-4o-mini", srv.URL+"/v1", GenerationParams{})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), conversation, nil)
	require.Error(t, err)
	var ee *engine.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, http.StatusTooManyRequests, ee.HTTPStatus)
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv, _ := jsonServer(t, http.StatusOK, `{"id":"1","choices":[]}`)
	c, err := NewOpenAIClient("sk-test", "gpt-4o-mini", srv.URL+"/v1", GenerationParams{})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), conversation, nil)
	assert.EqualError(t, err, "openai: empty response")
}

func TestAnthropicClient_Generate(t *testing.T) {
	srv, req := jsonServer(t, http.StatusOK, `{"id":"msg_1","type":"message","role":"assistant","model":"claude","content":[{"type":"text","text":"Hello "},{"type":"text","text":"there"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`)

	c, err := NewAnthropicClient("key", "claude-3-haiku", srv.URL, GenerationParams{Temperature: 0.2})
	require.NoError(t, err)

	got, err := c.Generate(context.Background(), conversation, []string{"Observation:"})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", got)

	assert.Equal(t, "/messages", req.Path)
	assert.EqualValues(t, defaultAnthropicMaxTokens, req.Body["max_tokens"])
	assert.Equal(t, []any{"Observation:"}, req.Body["stop_sequences"])
	msgs, ok := req.Body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 3)
}

func TestSplitAnthropicMessages(t *testing.T) {
	system, turns := splitAnthropicMessages([]engine.ChatMessage{
		{Role: engine.RoleSystem, Content: "prompt"},
		{Role: engine.RoleSystem, Content: "more prompt"},
		{Role: engine.RoleAssistant, Content: "earlier answer"},
		{Role: engine.RoleUser, Content: "question"},
		{Role: engine.RoleAssistant, Content: "ACTION: Search [x]"},
		{Role: engine.RoleSystem, Content: "Observation: found"},
		{Role: engine.RoleUser, Content: "and?"},
	})

	assert.Equal(t, []string{"prompt", "more prompt"}, system)
	assert.Equal(t, []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "(conversation continues)"},
		{Role: engine.RoleAssistant, Content: "earlier answer"},
		{Role: engine.RoleUser, Content: "question"},
		{Role: engine.RoleAssistant, Content: "ACTION: Search [x]"},
		{Role: engine.RoleUser, Content: "Observation: found\n\nand?"},
	}, turns)
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := NewAnthropicClient("", "claude", "", GenerationParams{})
	assert.Error(t, err)
}

func TestOllamaClient_Generate(t *testing.T) {
	srv, req := jsonServer(t, http.StatusOK, `{"model":"llama3.1","message":{"role":"assistant","content":"local answer"},"done":true}`)

	c, err := NewOllamaClient("llama3.1", srv.URL+"/v1", GenerationParams{Temperature: 0.5, MaxTokens: 32})
	require.NoError(t, err)

	got, err := c.Generate(context.Background(), conversation, []string{"Observation:"})
	require.NoError(t, err)
	assert.Equal(t, "local answer", got)

	assert.Equal(t, "/api/chat", req.Path)
	assert.Equal(t, false, req.Body["stream"])
	opts, ok := req.Body["options"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 32, opts["num_predict"])
	assert.Equal(t, []any{"Observation:"}, opts["stop"])
}
