package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/chatagent/internal/config"
	"github.com/ChamsBouzaiene/chatagent/internal/engine"
	"github.com/ChamsBouzaiene/chatagent/internal/knowledge"
	"github.com/ChamsBouzaiene/chatagent/internal/memory"
	"github.com/ChamsBouzaiene/chatagent/internal/prompts"
	"github.com/ChamsBouzaiene/chatagent/internal/providers"
	"github.com/ChamsBouzaiene/chatagent/internal/session"
	"github.com/ChamsBouzaiene/chatagent/internal/tools"
	"github.com/ChamsBouzaiene/chatagent/internal/tools/mcptool"
	"github.com/ChamsBouzaiene/chatagent/internal/tools/search"
)

// runtimeEnv holds the long-lived collaborators shared by every engine the
// process creates.
type runtimeEnv struct {
	Config   config.Config
	Logger   zerolog.Logger
	Memory   memory.Store
	Index    *knowledge.Index
	LLM      engine.LanguageModel
	Resolved providers.Resolved
	Tools    *engine.Registry
	Sessions *session.Store
	MCP      *mcptool.Manager

	watcher *knowledge.Watcher
}

type runtimeOptions struct {
	// Watch starts the knowledge watcher regardless of knowledge.watch.
	Watch bool
	// SkipLLM leaves LLM nil, for commands that never generate.
	SkipLLM bool
}

func prepareRuntimeEnv(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts runtimeOptions) (_ *runtimeEnv, err error) {
	env := &runtimeEnv{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			env.Close()
		}
	}()

	env.Memory, err = memory.Open(ctx, cfg.Memory.Backend, cfg.Memory.Path, logger.With().Str("component", "memory").Logger())
	if err != nil {
		return nil, errors.Wrap(err, "open memory store")
	}

	if err := env.openKnowledge(ctx, opts.Watch || cfg.Knowledge.Watch); err != nil {
		return nil, err
	}

	if !opts.SkipLLM {
		env.LLM, env.Resolved, err = providers.New(providerSettings(cfg.LLM), logger.With().Str("component", "llm").Logger())
		if err != nil {
			return nil, errors.Wrap(err, "configure language model")
		}
		logger.Debug().
			Str("provider", env.Resolved.Provider).
			Str("model", env.Resolved.Model).
			Str("base_url", env.Resolved.BaseURL).
			Msg("language model ready")
	}

	policy, err := engine.ParseOverwritePolicy(cfg.Agent.OverwritePolicy)
	if err != nil {
		return nil, err
	}
	env.MCP = mcptool.ConnectAll(ctx, mcpServers(cfg.MCP), logger.With().Str("component", "mcp").Logger())
	env.Tools, err = tools.NewToolRegistry(tools.Deps{
		Memory:    env.Memory,
		Knowledge: env.Index,
		Web:       search.WebConfig{Enabled: cfg.Tools.WebSearch.Enabled, Endpoint: cfg.Tools.WebSearch.Endpoint},
		MCP:       env.MCP.Tools(ctx),
	}, engine.FullToolSet(), policy, logger.With().Str("component", "tools").Logger())
	if err != nil {
		return nil, errors.Wrap(err, "build tool registry")
	}

	if cfg.Sessions.Enabled {
		dir, err := sessionsDir(cfg.Sessions)
		if err != nil {
			return nil, err
		}
		env.Sessions = session.NewStore(dir)
	}
	return env, nil
}

func (r *runtimeEnv) openKnowledge(ctx context.Context, watch bool) error {
	maxSize, err := r.Config.Knowledge.MaxFileSizeBytes()
	if err != nil {
		return err
	}
	log := r.Logger.With().Str("component", "knowledge").Logger()
	r.Index, err = knowledge.Open(r.Config.Knowledge.DocsDir, knowledge.Options{
		IndexPath:   r.Config.Knowledge.IndexPath,
		Extensions:  r.Config.Knowledge.Extensions,
		MaxFileSize: maxSize,
	}, log)
	if err != nil {
		return errors.Wrap(err, "open knowledge index")
	}
	if !r.Index.RootExists() {
		log.Warn().Str("dir", r.Index.Root()).Msg("knowledge base directory not found, Search will report it")
		return nil
	}

	// A persisted index is reused as is; an in-memory one is built now.
	if n, err := r.Index.DocCount(); err != nil || n == 0 {
		stats, err := r.Index.Rebuild(ctx)
		if err != nil {
			return errors.Wrap(err, "build knowledge index")
		}
		log.Info().Str("stats", stats.String()).Msg("knowledge index built")
	}

	if watch {
		r.watcher, err = knowledge.NewWatcher(r.Index, log)
		if err != nil {
			return err
		}
		if err := r.watcher.Start(); err != nil {
			return errors.Wrap(err, "start knowledge watcher")
		}
	}
	return nil
}

// newEngine builds a fresh conversation over the shared registry and memory.
// extra hooks run after the logger hook.
func (r *runtimeEnv) newEngine(extra ...engine.Hook) (*engine.Engine, error) {
	hooks := append([]engine.Hook{engine.NewLoggerHook(r.Logger.With().Str("component", "engine").Logger(), r.Resolved.Model)}, extra...)
	return engine.NewBuilder().
		WithLLM(r.LLM).
		WithModelName(r.Resolved.Model).
		WithRegistry(r.Tools).
		WithMemory(r.Memory).
		WithPrompt(prompts.ReactID, prompts.PromptVersion(r.Config.Agent.PromptVersion)).
		WithTemplate(r.Config.Agent.SystemPrompt).
		WithConfig(engine.Config{
			MaxHistory:       r.Config.Agent.MaxHistory,
			MaxIterations:    r.Config.Agent.MaxIterations,
			IterationTimeout: r.Config.Agent.IterationTimeout,
			Stop:             r.Config.Agent.Stop,
		}).
		WithHooks(hooks...).
		WithLogger(r.Logger).
		Build()
}

func mcpServers(c config.MCPConfig) []mcptool.ServerConfig {
	out := make([]mcptool.ServerConfig, len(c.Servers))
	for i, s := range c.Servers {
		out[i] = mcptool.ServerConfig{Name: s.Name, Command: s.Command, Args: s.Args, Env: s.Env}
	}
	return out
}

func (r *runtimeEnv) Close() {
	if err := r.MCP.Close(); err != nil {
		r.Logger.Warn().Err(err).Msg("close mcp servers")
	}
	if r.watcher != nil {
		if err := r.watcher.Stop(); err != nil {
			r.Logger.Warn().Err(err).Msg("stop knowledge watcher")
		}
	}
	if r.Index != nil {
		if err := r.Index.Close(); err != nil {
			r.Logger.Warn().Err(err).Msg("close knowledge index")
		}
	}
	if r.Memory != nil {
		if err := r.Memory.Close(); err != nil {
			r.Logger.Warn().Err(err).Msg("close memory store")
		}
	}
}

func providerSettings(c config.LLMConfig) providers.Settings {
	return providers.Settings{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Temperature: float32(c.Temperature),
		MaxTokens:   c.MaxTokens,
		MaxRetries:  c.MaxRetries,
		Timeout:     c.Timeout,
	}
}

func sessionsDir(c config.SessionsConfig) (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config dir")
	}
	return filepath.Join(dir, "chatagent", "sessions"), nil
}
