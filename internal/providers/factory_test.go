package providers

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

func zeroLogger() zerolog.Logger { return zerolog.Nop() }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestNew_Selection(t *testing.T) {
	tests := []struct {
		name         string
		settings     Settings
		env          map[string]string
		wantProvider string
		wantModel    string
		wantURL      string
		wantErr      string
	}{
		{
			name:         "auto without key uses mock",
			settings:     Settings{Provider: "auto"},
			wantProvider: ProviderMock,
			wantModel:    "mock",
		},
		{
			name:         "empty provider behaves like auto",
			settings:     Settings{},
			env:          map[string]string{"OPENAI_API_KEY": "sk-test"},
			wantProvider: ProviderOpenAI,
			wantModel:    "gpt-4o-mini",
		},
		{
			name:         "auto with configured key uses openai",
			settings:     Settings{Provider: "auto", APIKey: "sk-test", Model: "gpt-4o"},
			wantProvider: ProviderOpenAI,
			wantModel:    "gpt-4o",
		},
		{
			name:         "preset base url",
			settings:     Settings{Provider: "deepseek", APIKey: "k"},
			wantProvider: "deepseek",
			wantModel:    "deepseek-chat",
			wantURL:      "https://api.deepseek.com/v1",
		},
		{
			name:         "env overrides preset defaults",
			settings:     Settings{Provider: "kimi"},
			env:          map[string]string{"KIMI_API_KEY": "k", "KIMI_MODEL": "kimi-x", "KIMI_BASE_URL": "http://proxy/v1"},
			wantProvider: "kimi",
			wantModel:    "kimi-x",
			wantURL:      "http://proxy/v1",
		},
		{
			name:         "local provider needs no key",
			settings:     Settings{Provider: "LMStudio"},
			wantProvider: "lmstudio",
			wantModel:    "local-model",
			wantURL:      "http://localhost:1234/v1",
		},
		{
			name:         "anthropic",
			settings:     Settings{Provider: "anthropic", APIKey: "k"},
			wantProvider: ProviderAnthropic,
			wantModel:    "claude-3-sonnet-20240229",
		},
		{
			name:         "ollama",
			settings:     Settings{Provider: "ollama", BaseURL: "http://localhost:11434"},
			wantProvider: ProviderOllama,
			wantModel:    "llama3.1",
			wantURL:      "http://localhost:11434",
		},
		{
			name:     "missing key",
			settings: Settings{Provider: "openai"},
			wantErr:  "openai: api key not set (llm.api_key or OPENAI_API_KEY)",
		},
		{
			name:     "unknown provider",
			settings: Settings{Provider: "nope"},
			wantErr:  `unknown provider "nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.settings
			s.Getenv = envMap(tt.env)
			lm, res, err := New(s, zeroLogger())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, lm)
			assert.Equal(t, tt.wantProvider, res.Provider)
			assert.Equal(t, tt.wantModel, res.Model)
			if tt.wantURL != "" {
				assert.Equal(t, tt.wantURL, res.BaseURL)
			}
		})
	}
}

func TestNew_WrapsRetries(t *testing.T) {
	lm, _, err := New(Settings{Provider: "openai", APIKey: "k", MaxRetries: 2, Getenv: envMap(nil)}, zeroLogger())
	require.NoError(t, err)
	rm, ok := lm.(*engine.RetryingModel)
	require.True(t, ok)
	assert.Equal(t, 2, rm.Policy.MaxRetries)
	assert.IsType(t, &OpenAIClient{}, rm.Model)
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, ProviderAuto)
	assert.Contains(t, names, ProviderMock)
	assert.Contains(t, names, "gemini")
	assert.IsIncreasing(t, names)
}

func TestExtractErrorMetadata(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantRetry  string
	}{
		{nil, 0, ""},
		{errors.New("error, status code: 429, message: slow down, retry-after: 12"), 429, "12"},
		{errors.New("status code 503 Service Unavailable"), 503, ""},
		{errors.New("401 unauthorized"), 401, ""},
		{errors.New("model gpt-4o-2024 returned 4290 tokens"), 0, ""},
		{errors.New("please Retry after 30s"), 0, "30s"},
	}
	for _, tt := range tests {
		status, retry := extractErrorMetadata(tt.err)
		assert.Equal(t, tt.wantStatus, status, "%v", tt.err)
		assert.Equal(t, tt.wantRetry, retry, "%v", tt.err)
	}
}

func TestWrapError_Classifies(t *testing.T) {
	err := wrapError("openai", errors.New("status code: 429"))
	var ee *engine.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, engine.RetryClassRetryable, ee.Class)
	assert.True(t, ee.IsRateLimit)
	assert.Contains(t, err.Error(), "openai: status code: 429")
}
