package engine

import "context"

// Event is a progress notification for UIs.
type Event struct {
	Kind string `json:"kind"` // "turn_start", "action", "observation", "done"
	Data any    `json:"data,omitempty"`
}

// EventHook forwards engine progress to a UI channel. Sends never block: events are
// dropped when the channel is full.
type EventHook struct {
	NopHook
	Ch chan<- Event
}

func (h EventHook) send(ev Event) {
	select {
	case h.Ch <- ev:
	default:
	}
}

func (h EventHook) OnTurnStart(_ context.Context, st *TurnState) {
	h.send(Event{Kind: "turn_start", Data: st.Turn})
}

func (h EventHook) OnAction(_ context.Context, st *TurnState, a Action) {
	h.send(Event{Kind: "action", Data: map[string]any{"iteration": st.Iteration, "tool": a.Tool, "argument": a.Argument}})
}

func (h EventHook) OnToolResult(_ context.Context, _ *TurnState, r ToolResult) {
	h.send(Event{Kind: "observation", Data: map[string]any{"tool": r.Tool, "ok": r.Err == nil, "text": r.Observation()}})
}

func (h EventHook) OnTurnDone(_ context.Context, st *TurnState) {
	h.send(Event{Kind: "done", Data: map[string]any{"outcome": st.Outcome, "iterations": st.Iteration}})
}
