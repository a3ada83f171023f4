package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
	"github.com/ChamsBouzaiene/chatagent/internal/knowledge"
	mem "github.com/ChamsBouzaiene/chatagent/internal/memory"
)

func newDeps(t *testing.T) (Deps, mem.Store) {
	t.Helper()
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "python.txt"), []byte("Python is a programming language.\n"), 0o644))
	ix, err := knowledge.Open(docs, knowledge.Options{}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	_, err = ix.Rebuild(context.Background())
	require.NoError(t, err)

	store := mem.NewFileStore(filepath.Join(t.TempDir(), "user_memory.json"), zerolog.Nop())
	return Deps{Memory: store, Knowledge: ix}, store
}

func TestNewToolRegistry_FullSet(t *testing.T) {
	deps, _ := newDeps(t)
	reg, err := NewToolRegistry(deps, engine.FullToolSet(), engine.LastWriteWins, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Search", "Remember", "Calculator", "Weather", "DateTime", "Translator",
		"ImageGen", "DeepResearch", "WebSearch",
	}, reg.Names())
}

func TestNewToolRegistry_Subsets(t *testing.T) {
	reg, err := NewToolRegistry(Deps{}, engine.ToolSet{Utility: true, Media: true}, engine.LastWriteWins, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"Calculator", "Weather", "DateTime", "Translator", "ImageGen"}, reg.Names())

	_, err = NewToolRegistry(Deps{}, engine.ToolSet{Research: true}, engine.LastWriteWins, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewToolRegistry(Deps{}, engine.ToolSet{Memory: true}, engine.LastWriteWins, zerolog.Nop())
	assert.Error(t, err)
}

func TestRegistry_DrivesEngineWithMemory(t *testing.T) {
	deps, store := newDeps(t)
	reg, err := NewToolRegistry(deps, engine.FullToolSet(), engine.LastWriteWins, zerolog.Nop())
	require.NoError(t, err)

	responses := []string{"ACTION: Remember [profile: name is Alice]", "Nice to meet you, Alice."}
	var calls [][]engine.ChatMessage
	llm := engine.ModelFunc(func(_ context.Context, msgs []engine.ChatMessage, _ []string) (string, error) {
		calls = append(calls, msgs)
		return responses[len(calls)-1], nil
	})

	e, err := engine.NewBuilder().WithLLM(llm).WithRegistry(reg).WithMemory(store).Build()
	require.NoError(t, err)

	reply := e.Chat(context.Background(), "my name is Alice")
	assert.Equal(t, "Nice to meet you, Alice.", reply)

	require.Len(t, calls, 2)
	last := calls[1][len(calls[1])-1]
	assert.Equal(t, engine.RoleSystem, last.Role)
	assert.Equal(t, "Observation: Saved profile: name = Alice", last.Content)

	ctxText, err := store.GetContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "User Profile: [name: Alice]", ctxText)
	assert.Contains(t, e.SystemPrompt(context.Background()), "User Profile: [name: Alice]")
}

func TestNewToolRegistry_MCPToolsAppended(t *testing.T) {
	remote := engine.NewTool("fs_read_file", "Read a file.", func(_ context.Context, q string) (string, error) {
		return "contents of " + q, nil
	})
	reg, err := NewToolRegistry(Deps{MCP: []engine.Tool{remote}}, engine.ToolSet{Utility: true}, engine.FirstWriteWins, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"Calculator", "Weather", "DateTime", "Translator", "fs_read_file"}, reg.Names())

	shadow := engine.NewTool("Calculator", "remote calculator", nil)
	reg, err = NewToolRegistry(Deps{MCP: []engine.Tool{shadow}}, engine.ToolSet{Utility: true}, engine.FirstWriteWins, zerolog.Nop())
	require.NoError(t, err)
	tool, ok := reg.Get("Calculator")
	require.True(t, ok)
	assert.NotEqual(t, "remote calculator", tool.Description(), "built-ins win under first-write-wins")
}
