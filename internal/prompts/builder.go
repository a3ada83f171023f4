package prompts

import (
	"fmt"
	"strings"
)

// PromptBuilder fills {key} placeholders of a registered prompt.
type PromptBuilder struct {
	basePrompt *Prompt
	variables  map[string]string
}

// NewPromptBuilder creates a new prompt builder based on a registered prompt.
// An empty version selects the latest one.
func NewPromptBuilder(registry *PromptRegistry, id string, version PromptVersion) (*PromptBuilder, error) {
	var basePrompt *Prompt
	var err error
	if version == "" {
		basePrompt, err = registry.GetLatest(id)
	} else {
		basePrompt, err = registry.Get(id, version)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get base prompt: %w", err)
	}
	return &PromptBuilder{
		basePrompt: basePrompt,
		variables:  make(map[string]string),
	}, nil
}

// SetVariable sets a variable for template substitution.
func (b *PromptBuilder) SetVariable(key, value string) *PromptBuilder {
	b.variables[key] = value
	return b
}

// Build constructs the final prompt string.
func (b *PromptBuilder) Build() string {
	return Render(b.basePrompt.Content, b.variables)
}

// Render substitutes {key} placeholders in a single pass, so values that
// themselves contain placeholder text are inserted literally. Unknown
// placeholders are left untouched.
func Render(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
