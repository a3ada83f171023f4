package engine

import "context"

type Hooks []Hook

func (hs Hooks) OnTurnStart(ctx context.Context, st *TurnState) {
	for _, h := range hs {
		h.OnTurnStart(ctx, st)
	}
}
func (hs Hooks) OnBeforeGenerate(ctx context.Context, st *TurnState) {
	for _, h := range hs {
		h.OnBeforeGenerate(ctx, st)
	}
}
func (hs Hooks) OnAfterGenerate(ctx context.Context, st *TurnState, response string) {
	for _, h := range hs {
		h.OnAfterGenerate(ctx, st, response)
	}
}
func (hs Hooks) OnAction(ctx context.Context, st *TurnState, a Action) {
	for _, h := range hs {
		h.OnAction(ctx, st, a)
	}
}
func (hs Hooks) OnToolResult(ctx context.Context, st *TurnState, r ToolResult) {
	for _, h := range hs {
		h.OnToolResult(ctx, st, r)
	}
}
func (hs Hooks) OnTurnDone(ctx context.Context, st *TurnState) {
	for _, h := range hs {
		h.OnTurnDone(ctx, st)
	}
}
