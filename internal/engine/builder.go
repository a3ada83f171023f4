package engine

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/chatagent/internal/prompts"
)

// Builder helps construct an Engine with a fluent API.
type Builder struct {
	cfg           Config
	llm           LanguageModel
	tools         *Registry
	memory        MemoryReader
	hooks         Hooks
	logger        zerolog.Logger
	model         string
	promptID      string
	promptVersion prompts.PromptVersion
	template      string
}

// NewBuilder creates a builder with DefaultConfig and the latest "react" prompt.
func NewBuilder() *Builder {
	return &Builder{
		cfg:      DefaultConfig(),
		logger:   zerolog.Nop(),
		promptID: prompts.ReactID,
	}
}

// WithLLM sets the language model.
func (b *Builder) WithLLM(llm LanguageModel) *Builder {
	b.llm = llm
	return b
}

// WithModelName records the model name used for token accounting in logs.
func (b *Builder) WithModelName(model string) *Builder {
	b.model = model
	return b
}

// WithRegistry sets the tool registry. Several engines may share one.
func (b *Builder) WithRegistry(reg *Registry) *Builder {
	b.tools = reg
	return b
}

// WithMemory sets the long-term memory consulted once per turn.
func (b *Builder) WithMemory(m MemoryReader) *Builder {
	b.memory = m
	return b
}

// WithConfig replaces the loop limits.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithPrompt selects a registered prompt. An empty version means latest.
func (b *Builder) WithPrompt(id string, version prompts.PromptVersion) *Builder {
	b.promptID = id
	b.promptVersion = version
	return b
}

// WithTemplate sets the system prompt template directly, bypassing the
// prompt registry.
func (b *Builder) WithTemplate(template string) *Builder {
	b.template = template
	return b
}

// WithHooks sets custom hooks. Without it a LoggerHook is installed.
func (b *Builder) WithHooks(hooks ...Hook) *Builder {
	b.hooks = hooks
	return b
}

// WithLogger sets the logger used by the engine and the default hook.
func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = l
	return b
}

// Build constructs the Engine instance.
func (b *Builder) Build() (*Engine, error) {
	if b.llm == nil {
		return nil, errors.New("LLM client not configured: use WithLLM")
	}
	if b.tools == nil {
		return nil, errors.New("tools not configured: use WithRegistry")
	}

	template := b.template
	if template == "" {
		p, err := b.resolvePrompt()
		if err != nil {
			return nil, err
		}
		template = p.Content
	}

	hooks := b.hooks
	if hooks == nil {
		hooks = Hooks{NewLoggerHook(b.logger, b.model)}
	}

	b.logger.Debug().
		Str("prompt", b.promptID).
		Int("tools", b.tools.Len()).
		Int("max_history", b.cfg.MaxHistory).
		Int("max_iterations", b.cfg.MaxIterations).
		Dur("iteration_timeout", b.cfg.IterationTimeout).
		Msg("engine configured")

	return &Engine{
		llm:      b.llm,
		tools:    b.tools,
		memory:   b.memory,
		template: template,
		cfg:      b.cfg,
		hooks:    hooks,
		logger:   b.logger,
	}, nil
}

func (b *Builder) resolvePrompt() (*prompts.Prompt, error) {
	registry := prompts.DefaultRegistry()
	if b.promptVersion == "" {
		p, err := registry.GetLatest(b.promptID)
		if err != nil {
			return nil, fmt.Errorf("resolve prompt: %w", err)
		}
		return p, nil
	}
	p, err := registry.Get(b.promptID, b.promptVersion)
	if err != nil {
		return nil, fmt.Errorf("resolve prompt: %w", err)
	}
	return p, nil
}
