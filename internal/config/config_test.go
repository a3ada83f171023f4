package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	loaded, err := Load(LoadOptions{Candidates: []string{}, Environ: []string{}})
	require.NoError(t, err)

	assert.Equal(t, "", loaded.File)
	assert.Equal(t, Defaults(), normalize(loaded.Config))
}

// normalize maps empty slices produced by viper back to the nil/default
// values Defaults uses.
func normalize(c Config) Config {
	if len(c.Agent.Stop) == 0 {
		c.Agent.Stop = nil
	}
	return c
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "chatagent.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
llm:
  provider: anthropic
  model: from-file
  temperature: 0.2
agent:
  max_history: 8
  iteration_timeout: 30s
knowledge:
  extensions: [".txt"]
`), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "", "")
	flags.Int("max-iterations", 3, "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse([]string{"--model=from-flag"}))

	loaded, err := Load(LoadOptions{
		Candidates: []string{filepath.Join(dir, "missing.yaml"), file},
		Flags: map[string]*pflag.Flag{
			"llm.model":            flags.Lookup("model"),
			"agent.max_iterations": flags.Lookup("max-iterations"),
		},
		Environ: []string{
			"CHATAGENT_LLM_PROVIDER=ollama",
			"CHATAGENT_AGENT_MAX_HISTORY=2",
			"OTHER_LLM_PROVIDER=ignored",
		},
	})
	require.NoError(t, err)
	cfg := loaded.Config

	assert.Equal(t, file, loaded.File)
	assert.Equal(t, "ollama", cfg.LLM.Provider, "env beats file")
	assert.Equal(t, "from-flag", cfg.LLM.Model, "flag beats file")
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 2, cfg.Agent.MaxHistory)
	assert.Equal(t, 3, cfg.Agent.MaxIterations, "unchanged flag keeps default")
	assert.Equal(t, 30*time.Second, cfg.Agent.IterationTimeout)
	assert.Equal(t, []string{".txt"}, cfg.Knowledge.Extensions)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), Environ: []string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want string
	}{
		{"negative history", "CHATAGENT_AGENT_MAX_HISTORY=-1", "max_history"},
		{"bad policy", "CHATAGENT_AGENT_OVERWRITE_POLICY=sometimes", "overwrite_policy"},
		{"bad backend", "CHATAGENT_MEMORY_BACKEND=redis", "backend"},
		{"bad size", "CHATAGENT_KNOWLEDGE_MAX_FILE_SIZE=lots", "max_file_size"},
		{"bad log format", "CHATAGENT_LOG_FORMAT=xml", "format"},
		{"unknown prompt version", "CHATAGENT_AGENT_PROMPT_VERSION=9.9.9", "prompt_version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(LoadOptions{Candidates: []string{}, Environ: []string{tt.env}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadPromptOverrides(t *testing.T) {
	loaded, err := Load(LoadOptions{Candidates: []string{}, Environ: []string{
		"CHATAGENT_AGENT_PROMPT_VERSION=1.0.0",
		"CHATAGENT_AGENT_SYSTEM_PROMPT=Be brief. {tool_descriptions}",
	}})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", loaded.Config.Agent.PromptVersion)
	assert.Equal(t, "Be brief. {tool_descriptions}", loaded.Config.Agent.SystemPrompt)
}

func TestLoadMCPServers(t *testing.T) {
	write := func(t *testing.T, body string) string {
		t.Helper()
		file := filepath.Join(t.TempDir(), "chatagent.yaml")
		require.NoError(t, os.WriteFile(file, []byte(body), 0o600))
		return file
	}

	file := write(t, `
mcp:
  servers:
    - name: fs
      command: mcp-server-filesystem
      args: ["/srv/data"]
      env: ["LOG_LEVEL=quiet"]
`)
	loaded, err := Load(LoadOptions{ConfigFile: file, Environ: []string{}})
	require.NoError(t, err)
	assert.Equal(t, []MCPServerConfig{{
		Name:    "fs",
		Command: "mcp-server-filesystem",
		Args:    []string{"/srv/data"},
		Env:     []string{"LOG_LEVEL=quiet"},
	}}, loaded.Config.MCP.Servers)

	_, err = Load(LoadOptions{ConfigFile: write(t, `
mcp:
  servers:
    - name: file-system
      command: x
`), Environ: []string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	_, err = Load(LoadOptions{ConfigFile: write(t, `
mcp:
  servers:
    - {name: fs, command: a}
    - {name: fs, command: b}
`), Environ: []string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate mcp server name")
}

func TestLoadRejectsUnknownFlagKey(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("colour", "", "")
	_, err := Load(LoadOptions{
		Candidates: []string{},
		Environ:    []string{},
		Flags:      map[string]*pflag.Flag{"ui.colour": flags.Lookup("colour")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ui.colour")
}

func TestMaxFileSizeBytes(t *testing.T) {
	n, err := KnowledgeConfig{MaxFileSize: "1MiB"}.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), n)

	n, err = KnowledgeConfig{MaxFileSize: "512k"}.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(512<<10), n)
}
