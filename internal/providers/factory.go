package providers

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

// Provider names accepted by New.
const (
	ProviderAuto      = "auto"
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// GenerationParams are the sampling settings shared by every backend.
type GenerationParams struct {
	Temperature float32
	MaxTokens   int
	// HTTPClient overrides the SDK transport. Nil uses the SDK default.
	HTTPClient *http.Client
}

// Settings selects and configures a backend.
type Settings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	// MaxRetries wraps the model in an engine.RetryingModel when positive.
	MaxRetries int
	// Timeout bounds a single HTTP request. Zero uses the SDK default.
	Timeout time.Duration

	// Getenv resolves provider-specific environment variables. Nil uses os.Getenv.
	Getenv func(string) string
}

type backend int

const (
	backendOpenAI backend = iota
	backendAnthropic
	backendOllama
)

// preset describes a named provider: which client talks to it and where the
// key, model and base URL come from when the settings leave them empty.
type preset struct {
	backend      backend
	keyEnv       string
	modelEnv     string
	baseURLEnv   string
	defaultModel string
	defaultURL   string
	// keyOptional providers run locally and accept any key.
	keyOptional bool
	placeholder string
}

var presets = map[string]preset{
	ProviderOpenAI: {
		backend: backendOpenAI, keyEnv: "OPENAI_API_KEY", modelEnv: "OPENAI_MODEL",
		baseURLEnv: "OPENAI_BASE_URL", defaultModel: "gpt-4o-mini",
	},
	ProviderAnthropic: {
		backend: backendAnthropic, keyEnv: "ANTHROPIC_API_KEY", modelEnv: "ANTHROPIC_MODEL",
		baseURLEnv: "ANTHROPIC_BASE_URL", defaultModel: "claude-3-sonnet-20240229",
	},
	ProviderOllama: {
		backend: backendOllama, modelEnv: "OLLAMA_MODEL", baseURLEnv: "OLLAMA_BASE_URL",
		defaultModel: "llama3.1", keyOptional: true,
	},
	"kimi": {
		backend: backendOpenAI, keyEnv: "KIMI_API_KEY", modelEnv: "KIMI_MODEL",
		baseURLEnv: "KIMI_BASE_URL", defaultModel: "kimi-k2-250711",
		defaultURL: "https://ark.ap-southeast.bytepluses.com/api/v3",
	},
	"gemini": {
		backend: backendOpenAI, keyEnv: "GEMINI_API_KEY", modelEnv: "GEMINI_MODEL",
		defaultModel: "gemini-1.5-flash",
		defaultURL:   "https://generativelanguage.googleapis.com/v1beta/openai",
	},
	"lmstudio": {
		backend: backendOpenAI, keyEnv: "LMSTUDIO_API_KEY", modelEnv: "LMSTUDIO_MODEL",
		baseURLEnv: "LMSTUDIO_BASE_URL", defaultModel: "local-model",
		defaultURL: "http://localhost:1234/v1", keyOptional: true, placeholder: "lm-studio",
	},
	"glm": {
		backend: backendOpenAI, keyEnv: "GLM_API_KEY", modelEnv: "GLM_MODEL",
		defaultModel: "glm-4-plus", defaultURL: "https://open.bigmodel.cn/api/paas/v4",
	},
	"minimax": {
		backend: backendOpenAI, keyEnv: "MINIMAX_API_KEY", modelEnv: "MINIMAX_MODEL",
		defaultModel: "abab6.5s-chat", defaultURL: "https://api.minimax.chat/v1",
	},
	"deepseek": {
		backend: backendOpenAI, keyEnv: "DEEPSEEK_API_KEY", modelEnv: "DEEPSEEK_MODEL",
		defaultModel: "deepseek-chat", defaultURL: "https://api.deepseek.com/v1",
	},
	"groq": {
		backend: backendOpenAI, keyEnv: "GROQ_API_KEY", modelEnv: "GROQ_MODEL",
		defaultModel: "llama-3.1-70b-versatile", defaultURL: "https://api.groq.com/openai/v1",
	},
}

// Names lists every provider New accepts, sorted.
func Names() []string {
	names := []string{ProviderAuto, ProviderMock}
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the language model described by s and returns it together with
// the resolved provider and model names. With ProviderAuto (or an empty
// provider) the OpenAI backend is used when a key is available and the mock
// model otherwise.
func New(s Settings, logger zerolog.Logger) (engine.LanguageModel, Resolved, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	name := strings.ToLower(strings.TrimSpace(s.Provider))
	if name == "" || name == ProviderAuto {
		name = ProviderMock
		if s.APIKey != "" || getenv(presets[ProviderOpenAI].keyEnv) != "" {
			name = ProviderOpenAI
		}
		logger.Debug().Str("provider", name).Msg("auto-selected model provider")
	}

	if name == ProviderMock {
		return NewMockModel(), Resolved{Provider: ProviderMock, Model: "mock"}, nil
	}

	p, ok := presets[name]
	if !ok {
		return nil, Resolved{}, fmt.Errorf("unknown provider %q (known: %s)", name, strings.Join(Names(), ", "))
	}

	apiKey := firstNonEmpty(s.APIKey, envOf(getenv, p.keyEnv))
	if apiKey == "" {
		if !p.keyOptional {
			return nil, Resolved{}, fmt.Errorf("%s: api key not set (llm.api_key or %s)", name, p.keyEnv)
		}
		apiKey = p.placeholder
	}
	model := firstNonEmpty(s.Model, envOf(getenv, p.modelEnv), p.defaultModel)
	baseURL := firstNonEmpty(s.BaseURL, envOf(getenv, p.baseURLEnv), p.defaultURL)

	params := GenerationParams{Temperature: s.Temperature, MaxTokens: s.MaxTokens}
	if s.Timeout > 0 {
		params.HTTPClient = &http.Client{Timeout: s.Timeout}
	}

	var (
		lm  engine.LanguageModel
		err error
	)
	switch p.backend {
	case backendAnthropic:
		lm, err = NewAnthropicClient(apiKey, model, baseURL, params)
	case backendOllama:
		lm, err = NewOllamaClient(model, baseURL, params)
	default:
		lm, err = NewOpenAIClient(apiKey, model, baseURL, params)
	}
	if err != nil {
		return nil, Resolved{}, fmt.Errorf("failed to create %s client: %w", name, err)
	}

	if s.MaxRetries > 0 {
		policy := engine.DefaultRetryPolicy()
		policy.MaxRetries = s.MaxRetries
		lm = engine.NewRetryingModel(lm, policy, logger)
	}

	logger.Info().Str("provider", name).Str("model", model).Str("base_url", baseURL).Msg("model provider ready")
	return lm, Resolved{Provider: name, Model: model, BaseURL: baseURL}, nil
}

// Resolved reports what New actually configured.
type Resolved struct {
	Provider string
	Model    string
	BaseURL  string
}

func envOf(getenv func(string) string, key string) string {
	if key == "" {
		return ""
	}
	return getenv(key)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
