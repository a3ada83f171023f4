// Package config loads chatagent settings from defaults, an optional config
// file, CHATAGENT_* environment variables and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// CHATAGENT_LLM_PROVIDER for llm.provider.
const EnvPrefix = "CHATAGENT"

// Config is the fully merged configuration.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm" json:"llm"`
	Agent     AgentConfig     `mapstructure:"agent" yaml:"agent" json:"agent"`
	Memory    MemoryConfig    `mapstructure:"memory" yaml:"memory" json:"memory"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge" yaml:"knowledge" json:"knowledge"`
	Tools     ToolsConfig     `mapstructure:"tools" yaml:"tools" json:"tools"`
	MCP       MCPConfig       `mapstructure:"mcp" yaml:"mcp,omitempty" json:"mcp"`
	Sessions  SessionsConfig  `mapstructure:"sessions" yaml:"sessions" json:"sessions"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server" json:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider" json:"provider"`
	Model       string        `mapstructure:"model" yaml:"model,omitempty" json:"model,omitempty"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

type AgentConfig struct {
	MaxHistory       int           `mapstructure:"max_history" yaml:"max_history" json:"max_history"`
	MaxIterations    int           `mapstructure:"max_iterations" yaml:"max_iterations" json:"max_iterations"`
	IterationTimeout time.Duration `mapstructure:"iteration_timeout" yaml:"iteration_timeout,omitempty" json:"iteration_timeout,omitempty"`
	OverwritePolicy  string        `mapstructure:"overwrite_policy" yaml:"overwrite_policy" json:"overwrite_policy"`
	Stop             []string      `mapstructure:"stop" yaml:"stop,omitempty" json:"stop,omitempty"`
	// PromptVersion pins the ReAct prompt version; empty means latest.
	PromptVersion string `mapstructure:"prompt_version" yaml:"prompt_version,omitempty" json:"prompt_version,omitempty"`
	// SystemPrompt replaces the registered prompt template entirely.
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
}

type MemoryConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
}

type KnowledgeConfig struct {
	DocsDir     string   `mapstructure:"docs_dir" yaml:"docs_dir" json:"docs_dir"`
	IndexPath   string   `mapstructure:"index_path" yaml:"index_path,omitempty" json:"index_path,omitempty"`
	MaxFileSize string   `mapstructure:"max_file_size" yaml:"max_file_size" json:"max_file_size"`
	Watch       bool     `mapstructure:"watch" yaml:"watch" json:"watch"`
	Extensions  []string `mapstructure:"extensions" yaml:"extensions" json:"extensions"`
}

// MaxFileSizeBytes parses MaxFileSize ("1MiB", "512k", ...).
func (k KnowledgeConfig) MaxFileSizeBytes() (int64, error) {
	n, err := units.RAMInBytes(k.MaxFileSize)
	if err != nil {
		return 0, errors.Wrapf(err, "knowledge.max_file_size %q", k.MaxFileSize)
	}
	return n, nil
}

type ToolsConfig struct {
	WebSearch WebSearchConfig `mapstructure:"web_search" yaml:"web_search" json:"web_search"`
}

type WebSearchConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// MCPConfig lists stdio MCP servers whose tools join the registry. It has
// no environment mapping; servers come from the config file only.
type MCPConfig struct {
	Servers []MCPServerConfig `mapstructure:"servers" yaml:"servers,omitempty" json:"servers"`
}

type MCPServerConfig struct {
	Name    string   `mapstructure:"name" yaml:"name" json:"name"`
	Command string   `mapstructure:"command" yaml:"command" json:"command"`
	Args    []string `mapstructure:"args" yaml:"args,omitempty" json:"args,omitempty"`
	// Env holds KEY=VALUE entries added to the inherited environment.
	Env []string `mapstructure:"env" yaml:"env,omitempty" json:"env,omitempty"`
}

type SessionsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir,omitempty" json:"dir,omitempty"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format,omitempty" json:"format,omitempty"`
	File   string `mapstructure:"file" yaml:"file,omitempty" json:"file,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    "auto",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Agent: AgentConfig{
			MaxHistory:      5,
			MaxIterations:   3,
			OverwritePolicy: "last",
		},
		Memory: MemoryConfig{
			Backend: "file",
			Path:    "user_memory.json",
		},
		Knowledge: KnowledgeConfig{
			DocsDir:     filepath.Join("data", "docs"),
			MaxFileSize: "1MiB",
			Extensions:  []string{".txt", ".md"},
		},
		Tools: ToolsConfig{
			WebSearch: WebSearchConfig{Endpoint: "https://html.duckduckgo.com/html/"},
		},
		Sessions: SessionsConfig{Enabled: true},
		Server:   ServerConfig{Addr: ":9453"},
		Log:      LogConfig{Level: "info"},
	}
}

// setDefaults registers every key with viper so that environment variables
// are picked up by Unmarshal even when no config file mentions them.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)
	v.SetDefault("llm.timeout", "0s")
	v.SetDefault("agent.max_history", d.Agent.MaxHistory)
	v.SetDefault("agent.max_iterations", d.Agent.MaxIterations)
	v.SetDefault("agent.iteration_timeout", "0s")
	v.SetDefault("agent.overwrite_policy", d.Agent.OverwritePolicy)
	v.SetDefault("agent.stop", []string{})
	v.SetDefault("agent.prompt_version", d.Agent.PromptVersion)
	v.SetDefault("agent.system_prompt", d.Agent.SystemPrompt)
	v.SetDefault("memory.backend", d.Memory.Backend)
	v.SetDefault("memory.path", d.Memory.Path)
	v.SetDefault("knowledge.docs_dir", d.Knowledge.DocsDir)
	v.SetDefault("knowledge.index_path", d.Knowledge.IndexPath)
	v.SetDefault("knowledge.max_file_size", d.Knowledge.MaxFileSize)
	v.SetDefault("knowledge.watch", d.Knowledge.Watch)
	v.SetDefault("knowledge.extensions", d.Knowledge.Extensions)
	v.SetDefault("tools.web_search.enabled", d.Tools.WebSearch.Enabled)
	v.SetDefault("tools.web_search.endpoint", d.Tools.WebSearch.Endpoint)
	v.SetDefault("sessions.enabled", d.Sessions.Enabled)
	v.SetDefault("sessions.dir", d.Sessions.Dir)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
}

// LoadOptions control where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit config file; it must exist when set.
	ConfigFile string
	// Candidates are tried in order when ConfigFile is empty. Nil uses
	// DefaultCandidates.
	Candidates []string
	// Flags maps config keys ("llm.provider") to the command-line flags that
	// override them when set.
	Flags map[string]*pflag.Flag
	// Environ replaces the process environment when non-nil.
	Environ []string
}

// DefaultCandidates lists the config files tried when none is given:
// chatagent.{yaml,yml,json} in the working directory, then the file
// maintained by Manager.
func DefaultCandidates() []string {
	paths := []string{"chatagent.yaml", "chatagent.yml", "chatagent.json"}
	if m, err := NewManager(); err == nil {
		paths = append(paths, m.Path())
	}
	return paths
}

// Loaded is the result of Load.
type Loaded struct {
	Config Config
	// File is the config file that was read, or "".
	File string
}

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

// Load merges defaults, config file, environment and flags, decodes the
// result and validates it against the configuration schema.
func Load(opts LoadOptions) (*Loaded, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	if opts.Environ != nil {
		applyEnviron(v, opts.Environ)
	} else {
		v.AutomaticEnv()
	}

	file := opts.ConfigFile
	if file == "" {
		candidates := opts.Candidates
		if candidates == nil {
			candidates = DefaultCandidates()
		}
		for _, c := range candidates {
			if st, err := os.Stat(c); err == nil && !st.IsDir() {
				file = c
				break
			}
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
	}

	for key, f := range opts.Flags {
		if f == nil {
			continue
		}
		if !isKnownKey(v, key) {
			return nil, errors.Errorf("flag --%s bound to unknown config key %q", f.Name, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, errors.Wrapf(err, "bind flag --%s", f.Name)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, File: file}, nil
}

// applyEnviron feeds CHATAGENT_* pairs from an explicit environment.
func applyEnviron(v *viper.Viper, environ []string) {
	keys := make(map[string]string)
	for _, k := range v.AllKeys() {
		keys[envReplacer.Replace(k)] = k
	}
	for _, kv := range environ {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix+"_") {
			continue
		}
		if key, ok := keys[strings.ToLower(strings.TrimPrefix(name, EnvPrefix+"_"))]; ok {
			v.Set(key, val)
		}
	}
}

func isKnownKey(v *viper.Viper, key string) bool {
	for _, k := range v.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}
