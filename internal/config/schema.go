package config

import (
	_ "embed"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/ChamsBouzaiene/chatagent/internal/prompts"
)

//go:embed schema.json
var schemaJSON string

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// Validate checks a decoded configuration against the embedded schema and
// the cross-field rules the schema cannot express.
func Validate(cfg Config) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(cfg))
	if err != nil {
		return errors.Wrap(err, "validate config")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	if _, err := cfg.Knowledge.MaxFileSizeBytes(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(cfg.MCP.Servers))
	for _, s := range cfg.MCP.Servers {
		if seen[s.Name] {
			return errors.Errorf("duplicate mcp server name %q", s.Name)
		}
		seen[s.Name] = true
	}
	if v := cfg.Agent.PromptVersion; v != "" {
		available := prompts.DefaultRegistry().Versions(prompts.ReactID)
		if !slices.Contains(available, prompts.PromptVersion(v)) {
			return errors.Errorf("unknown agent.prompt_version %q (available: %v)", v, available)
		}
	}
	return nil
}
