package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv isolates a command run: config, sessions, memory and docs all live
// under a temp dir and the mock model answers.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("CHATAGENT_SESSIONS_DIR", filepath.Join(dir, "sessions"))
	t.Setenv("CHATAGENT_MEMORY_PATH", filepath.Join(dir, "memory.json"))
	t.Setenv("CHATAGENT_LLM_PROVIDER", "mock")
	t.Setenv("CHATAGENT_LOG_LEVEL", "disabled")

	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "python.txt"),
		[]byte("Python is a programming language.\nAgents use tools to act.\n"), 0o644))
	t.Setenv("CHATAGENT_KNOWLEDGE_DOCS_DIR", docs)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestChatOneShotCalculator(t *testing.T) {
	testEnv(t)

	out, err := run(t, "chat", "-m", "what is 2+3")
	require.NoError(t, err)
	assert.Contains(t, out, "Assistant: Based on my research, Result: 2+3 = 5")
}

func TestChatRemembersAcrossRuns(t *testing.T) {
	testEnv(t)

	_, err := run(t, "chat", "-m", "my name is Ada")
	require.NoError(t, err)

	out, err := run(t, "memory", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "User Profile: [name: ada]")

	out, err = run(t, "memory", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Memory cleared.")

	out, err = run(t, "memory", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing remembered yet.")
}

func TestSessionsLifecycle(t *testing.T) {
	testEnv(t)

	out, err := run(t, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved sessions.")

	_, err = run(t, "chat", "-m", "tell me about python")
	require.NoError(t, err)

	out, err = run(t, "sessions", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	id := strings.Fields(lines[1])[0]

	out, err = run(t, "sessions", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "tell me about python")
	assert.Contains(t, out, "role: assistant")

	out, err = run(t, "chat", "--session", id, "-m", "what is 7*6")
	require.NoError(t, err)
	assert.Contains(t, out, "Resumed session "+id)
	assert.Contains(t, out, "Result: 7*6 = 42")

	_, err = run(t, "sessions", "delete", id)
	require.NoError(t, err)
	_, err = run(t, "sessions", "show", id)
	require.Error(t, err)
}

func TestToolsCommand(t *testing.T) {
	testEnv(t)

	out, err := run(t, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "Calculator")
	assert.Contains(t, out, "Remember")

	out, err = run(t, "tools", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "- name: Search")

	_, err = run(t, "tools", "-o", "xml")
	require.Error(t, err)
}

func TestIndexCommand(t *testing.T) {
	testEnv(t)

	out, err := run(t, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "1 files, 2 lines")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := testEnv(t)

	out, err := run(t, "config", "init")
	require.NoError(t, err)
	path := filepath.Join(dir, "config", "chatagent", "config.yaml")
	assert.Contains(t, out, path)

	_, err = run(t, "config", "init")
	require.Error(t, err)

	out, err = run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# loaded from "+path)
	assert.Contains(t, out, "provider: mock")
}

func TestInvalidConfigIsRejected(t *testing.T) {
	testEnv(t)
	t.Setenv("CHATAGENT_MEMORY_BACKEND", "redis")

	_, err := run(t, "memory", "show")
	require.Error(t, err)
}
