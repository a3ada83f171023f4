// engine/hook_logger.go
package engine

import (
	"context"

	"github.com/rs/zerolog"
)

// LoggerHook writes one structured log line per loop event.
type LoggerHook struct {
	L         zerolog.Logger
	Model     string
	Tokenizer Tokenizer
}

// NewLoggerHook returns a LoggerHook counting tokens with the tokenizer for model.
func NewLoggerHook(l zerolog.Logger, model string) LoggerHook {
	return LoggerHook{L: l, Model: model, Tokenizer: GetTokenizerForModel(model)}
}

func (h LoggerHook) OnTurnStart(_ context.Context, st *TurnState) {
	h.L.Debug().Int("turn", st.Turn).Int("input_len", len(st.Input)).Msg("turn start")
}

func (h LoggerHook) OnBeforeGenerate(_ context.Context, st *TurnState) {
	ev := h.L.Debug().Int("turn", st.Turn).Int("iteration", st.Iteration).Int("messages", len(st.Messages))
	if h.Tokenizer != nil {
		if tokens, err := CountTokensForMessages(h.Tokenizer, st.Messages, h.Model); err == nil {
			ev = ev.Int("tokens", tokens)
		}
	}
	ev.Msg("generate")
}

func (h LoggerHook) OnAfterGenerate(_ context.Context, st *TurnState, response string) {
	h.L.Debug().Int("turn", st.Turn).Int("iteration", st.Iteration).Int("response_len", len(response)).Msg("generated")
}

func (h LoggerHook) OnAction(_ context.Context, st *TurnState, a Action) {
	h.L.Info().Int("turn", st.Turn).Str("tool", a.Tool).Str("argument", preview(a.Argument, 100)).Msg("tool →")
}

func (h LoggerHook) OnToolResult(_ context.Context, st *TurnState, r ToolResult) {
	if r.Err != nil {
		h.L.Warn().Int("turn", st.Turn).Str("tool", r.Tool).Err(r.Err).Msg("tool failed")
		return
	}
	h.L.Info().Int("turn", st.Turn).Str("tool", r.Tool).Str("result", preview(r.Output, 100)).Msg("tool result")
}

func (h LoggerHook) OnTurnDone(_ context.Context, st *TurnState) {
	ev := h.L.Info()
	if st.Outcome == OutcomeGenerationFailed {
		ev = h.L.Error().Err(st.Err).Bool("retries_exhausted", IsRetryExhausted(st.Err))
	}
	ev.Int("turn", st.Turn).Int("iterations", st.Iteration).Str("outcome", string(st.Outcome)).Msg("turn done")
}

// preview truncates s to n runes, adding "..." when cut.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
