package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/chatagent/internal/config"
	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

func testRuntimeConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Memory.Path = filepath.Join(dir, "memory.json")
	cfg.Knowledge.DocsDir = filepath.Join(dir, "docs")
	cfg.Sessions.Enabled = false
	return cfg
}

func newTestRuntime(t *testing.T, cfg config.Config) *runtimeEnv {
	t.Helper()
	env, err := prepareRuntimeEnv(context.Background(), cfg, zerolog.Nop(), runtimeOptions{SkipLLM: true})
	require.NoError(t, err)
	t.Cleanup(env.Close)
	env.LLM = engine.ModelFunc(func(context.Context, []engine.ChatMessage, []string) (string, error) {
		return "ok", nil
	})
	return env
}

func TestRuntime_SystemPromptOverride(t *testing.T) {
	cfg := testRuntimeConfig(t)
	cfg.Agent.SystemPrompt = "Answer tersely.\n{tool_descriptions}\n{memory_context}"
	env := newTestRuntime(t, cfg)

	e, err := env.newEngine()
	require.NoError(t, err)
	prompt := e.SystemPrompt(context.Background())
	assert.True(t, strings.HasPrefix(prompt, "Answer tersely.\n- Search: "), prompt)
	assert.NotContains(t, prompt, "ACTION: ToolName [Query]")
}

func TestRuntime_PinnedPromptVersion(t *testing.T) {
	cfg := testRuntimeConfig(t)
	cfg.Agent.PromptVersion = "1.0.0"
	env := newTestRuntime(t, cfg)

	e, err := env.newEngine()
	require.NoError(t, err)
	assert.Contains(t, e.SystemPrompt(context.Background()), "ACTION: ToolName [Query]")
}

func TestRuntime_UnreachableMCPServerIsSkipped(t *testing.T) {
	cfg := testRuntimeConfig(t)
	cfg.MCP.Servers = []config.MCPServerConfig{{Name: "ghost", Command: filepath.Join(t.TempDir(), "missing")}}
	env := newTestRuntime(t, cfg)

	for _, name := range env.Tools.Names() {
		assert.False(t, strings.HasPrefix(name, "ghost_"), name)
	}
	assert.Contains(t, env.Tools.Names(), "Calculator")
}
