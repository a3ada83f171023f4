package engine

import "github.com/ChamsBouzaiene/chatagent/internal/prompts"

// BuildSystemPrompt renders template with the tool list and memory context.
// Substitution is single-pass: braces inside either value are kept literally.
func BuildSystemPrompt(template, toolDescriptions, memoryContext string) string {
	return prompts.Render(template, map[string]string{
		prompts.VarToolDescriptions: toolDescriptions,
		prompts.VarMemoryContext:    memoryContext,
	})
}
