package engine

import (
	"context"
	"fmt"
)

// Tool is a named capability the model can invoke with a free-text query.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, query string) (string, error)
}

// ToolFunc is the body of a function-backed tool.
type ToolFunc func(ctx context.Context, query string) (string, error)

type funcTool struct {
	name        string
	description string
	fn          ToolFunc
}

// NewTool wraps fn as a Tool.
func NewTool(name, description string, fn ToolFunc) Tool {
	return &funcTool{name: name, description: description, fn: fn}
}

func (t *funcTool) Name() string        { return t.name }
func (t *funcTool) Description() string { return t.description }
func (t *funcTool) Run(ctx context.Context, query string) (string, error) {
	return t.fn(ctx, query)
}

// ToolResult is the outcome of one tool invocation. Exactly one of Output or
// Err is meaningful.
type ToolResult struct {
	Tool   string
	Output string
	Err    error
}

// Observation renders the result as the text fed back to the model.
func (r ToolResult) Observation() string {
	if r.Err != nil {
		return "Observation: " + r.Err.Error()
	}
	return "Observation: " + r.Output
}

// runTool executes t and converts failures, panics and missed deadlines into
// a ToolExecutionError.
func runTool(ctx context.Context, t Tool, query string) (res ToolResult) {
	res.Tool = t.Name()
	defer func() {
		if p := recover(); p != nil {
			res.Output = ""
			res.Err = &ToolExecutionError{Tool: res.Tool, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	out, err := t.Run(ctx, query)
	if err == nil && ctx.Err() != nil {
		// The tool ignored its context and returned after the deadline.
		err = ctx.Err()
	}
	if err != nil {
		return ToolResult{Tool: res.Tool, Err: &ToolExecutionError{Tool: res.Tool, Err: err}}
	}
	return ToolResult{Tool: res.Tool, Output: out}
}
