// engine/hooks.go
package engine

import "context"

type Hook interface {
	OnTurnStart(ctx context.Context, st *TurnState)
	OnBeforeGenerate(ctx context.Context, st *TurnState)
	OnAfterGenerate(ctx context.Context, st *TurnState, response string)
	OnAction(ctx context.Context, st *TurnState, action Action)
	OnToolResult(ctx context.Context, st *TurnState, result ToolResult)
	OnTurnDone(ctx context.Context, st *TurnState)
}

// NopHook lets you implement only the hooks you need.
type NopHook struct{}

func (NopHook) OnTurnStart(context.Context, *TurnState)             {}
func (NopHook) OnBeforeGenerate(context.Context, *TurnState)        {}
func (NopHook) OnAfterGenerate(context.Context, *TurnState, string) {}
func (NopHook) OnAction(context.Context, *TurnState, Action)        {}
func (NopHook) OnToolResult(context.Context, *TurnState, ToolResult) {}
func (NopHook) OnTurnDone(context.Context, *TurnState)              {}
