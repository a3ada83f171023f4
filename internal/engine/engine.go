package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// FallbackReply is returned when the iteration budget runs out.
	FallbackReply = "I had trouble processing your request, please rephrase."
	// generationFailurePrefix precedes the model error in the apology reply.
	generationFailurePrefix = "Sorry, an error occurred while processing your request: "
)

// Engine runs the generate / act / observe loop for one conversation.
// Chat calls are serialised; the engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	llm      LanguageModel
	tools    *Registry
	memory   MemoryReader
	template string
	cfg      Config
	history  []ChatMessage
	hooks    Hooks
	logger   zerolog.Logger
	turns    int
}

// Chat runs one turn for input and returns the reply. It never fails: model
// errors, missing tools, tool errors and an exhausted iteration budget all
// degrade to text. Only the user input and the final reply are added to the
// history.
func (e *Engine) Chat(ctx context.Context, input string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.turns++
	st := &TurnState{Turn: e.turns, Input: input}
	e.hooks.OnTurnStart(ctx, st)

	e.history = append(e.history, ChatMessage{Role: RoleUser, Content: input})

	window := e.windowLocked()
	st.Messages = make([]ChatMessage, 0, len(window)+1+2*max(e.cfg.MaxIterations, 0))
	st.Append(ChatMessage{Role: RoleSystem, Content: e.systemPromptLocked(ctx)})
	st.Messages = append(st.Messages, window...)

	for i := 1; i <= e.cfg.MaxIterations; i++ {
		st.Iteration = i
		e.hooks.OnBeforeGenerate(ctx, st)

		response, err := e.generate(ctx, st.Messages)
		if err != nil {
			st.Err = &GenerationError{Iteration: i, Err: err}
			return e.finishLocked(ctx, st, OutcomeGenerationFailed, generationFailurePrefix+err.Error())
		}
		e.hooks.OnAfterGenerate(ctx, st, response)

		action, ok := ParseAction(response)
		if !ok {
			return e.finishLocked(ctx, st, OutcomeAnswered, response)
		}
		st.Action = &action
		e.hooks.OnAction(ctx, st, action)

		result := e.execute(ctx, action)
		e.hooks.OnToolResult(ctx, st, result)

		st.Append(ChatMessage{Role: RoleAssistant, Content: response})
		st.Append(ChatMessage{Role: RoleSystem, Content: result.Observation()})
	}

	return e.finishLocked(ctx, st, OutcomeIterationsExhausted, FallbackReply)
}

func (e *Engine) finishLocked(ctx context.Context, st *TurnState, outcome Outcome, reply string) string {
	e.history = append(e.history, ChatMessage{Role: RoleAssistant, Content: reply})
	st.Outcome = outcome
	st.Reply = reply
	e.hooks.OnTurnDone(ctx, st)
	return reply
}

func (e *Engine) generate(ctx context.Context, messages []ChatMessage) (string, error) {
	if e.cfg.IterationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.IterationTimeout)
		defer cancel()
	}
	return e.llm.Generate(ctx, messages, e.cfg.Stop)
}

func (e *Engine) execute(ctx context.Context, action Action) ToolResult {
	tool, ok := e.tools.Get(action.Tool)
	if !ok {
		return ToolResult{
			Tool: action.Tool,
			Err:  &ToolNotFoundError{Name: action.Tool, Available: e.tools.Names()},
		}
	}
	if e.cfg.IterationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.IterationTimeout)
		defer cancel()
	}
	return runTool(ctx, tool, action.Argument)
}

// windowLocked returns the most recent MaxHistory*2 history messages.
func (e *Engine) windowLocked() []ChatMessage {
	n := e.cfg.MaxHistory * 2
	if n <= 0 || n >= len(e.history) {
		return e.history
	}
	return e.history[len(e.history)-n:]
}

func (e *Engine) systemPromptLocked(ctx context.Context) string {
	memoryContext := ""
	if e.memory != nil {
		mc, err := e.memory.GetContext(ctx)
		if err != nil {
			e.logger.Warn().Err(err).Msg("memory context unavailable")
		} else {
			memoryContext = mc
		}
	}
	return BuildSystemPrompt(e.template, e.tools.Description(), memoryContext)
}

// SystemPrompt renders the system prompt the next turn would use.
func (e *Engine) SystemPrompt(ctx context.Context) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.systemPromptLocked(ctx)
}

// AddTool registers t according to the registry's overwrite policy.
func (e *Engine) AddTool(t Tool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tools.Register(t)
}

// RemoveTool unregisters the named tool and reports whether it existed.
func (e *Engine) RemoveTool(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tools.Unregister(name)
}

// ListTools returns tool names in registration order.
func (e *Engine) ListTools() []string {
	return e.tools.Names()
}

// Tools exposes the engine's registry.
func (e *Engine) Tools() *Registry {
	return e.tools
}

// Reset clears the conversation history.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}

// History returns a copy of the full conversation history.
func (e *Engine) History() []ChatMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ChatMessage(nil), e.history...)
}

// LoadHistory replaces the conversation history, e.g. when resuming a saved
// session. Invalid messages are rejected as a whole.
func (e *Engine) LoadHistory(history []ChatMessage) error {
	for i, m := range history {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("history message %d: %w", i, err)
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append([]ChatMessage(nil), history...)
	return nil
}

// SetMaxHistory changes how many recent exchanges are sent to the model.
func (e *Engine) SetMaxHistory(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.MaxHistory = n
}

// SetMaxIterations changes the per-turn generate call budget.
func (e *Engine) SetMaxIterations(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.MaxIterations = n
}

// Config returns the current loop limits.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}
