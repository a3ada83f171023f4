// Command chatagent is a tool-using conversational agent: an interactive
// REPL, a websocket server and a few maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ChamsBouzaiene/chatagent/internal/config"
)

// app carries state resolved once by the root command.
type app struct {
	configFile string
	cfg        config.Config
	loadedFile string
	logger     zerolog.Logger
}

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"provider":       "llm.provider",
	"model":          "llm.model",
	"base-url":       "llm.base_url",
	"temperature":    "llm.temperature",
	"max-retries":    "llm.max_retries",
	"max-history":    "agent.max_history",
	"max-iterations": "agent.max_iterations",
	"memory-backend": "memory.backend",
	"memory-path":    "memory.path",
	"docs":           "knowledge.docs_dir",
	"web-search":     "tools.web_search.enabled",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-file":       "log.file",
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "chatagent",
		Short:         "A tool-using chat agent with long-term memory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Flags())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./chatagent.yaml or the user config dir)")
	pf.String("provider", "", "language model provider (auto, mock, openai, anthropic, ollama, ...)")
	pf.String("model", "", "model name")
	pf.String("base-url", "", "override the provider API base URL")
	pf.Float64("temperature", 0.7, "sampling temperature")
	pf.Int("max-retries", 0, "retry failed model calls this many times")
	pf.Int("max-history", 5, "recent exchanges sent to the model")
	pf.Int("max-iterations", 3, "model calls allowed per turn")
	pf.String("memory-backend", "file", "memory backend (file or sqlite)")
	pf.String("memory-path", "user_memory.json", "memory file or database")
	pf.String("docs", "data/docs", "knowledge base directory")
	pf.Bool("web-search", false, "enable the WebSearch tool")
	pf.String("log-level", "info", "log level")
	pf.String("log-format", "", "log format: json or text (default text on a terminal)")
	pf.String("log-file", "", "write logs to a rotated file")

	root.AddCommand(
		newChatCommand(a),
		newToolsCommand(a),
		newSessionsCommand(a),
		newMemoryCommand(a),
		newIndexCommand(a),
		newServeCommand(a),
		newConfigCommand(a),
	)
	return root
}

func (a *app) init(flags *pflag.FlagSet) error {
	// .env is optional.
	_ = godotenv.Load()

	bound := make(map[string]*pflag.Flag, len(flagKeys))
	for name, key := range flagKeys {
		bound[key] = flags.Lookup(name)
	}
	loaded, err := config.Load(config.LoadOptions{ConfigFile: a.configFile, Flags: bound})
	if err != nil {
		return err
	}
	a.cfg = loaded.Config
	a.loadedFile = loaded.File

	a.logger, err = initLogger(a.cfg.Log)
	if err != nil {
		return err
	}
	if a.loadedFile != "" {
		a.logger.Debug().Str("file", a.loadedFile).Msg("config loaded")
	}
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
