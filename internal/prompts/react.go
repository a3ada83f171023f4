package prompts

// Prompt IDs registered by this package.
const (
	ReactID        = "react"
	SessionTitleID = "session_title"
)

// Placeholders understood by the react template.
const (
	VarToolDescriptions = "tool_descriptions"
	VarMemoryContext    = "memory_context"
)

func init() {
	registry := DefaultRegistry()

	registry.Register(&Prompt{
		ID:      ReactID,
		Version: PromptV1,
		Content: `You are a helpful AI assistant.
You have access to the following tools:
{tool_descriptions}

To use a tool, please use the following format:
ACTION: ToolName [Query]

Example:
User: What is Python?
Assistant: ACTION: Search [Python]

If you do not need to use a tool, just answer the user directly.
Always answer in the same language as the user.
{memory_context}
`,
		Description: "Reason-then-act system prompt with a single-line action grammar",
		Tags:        []string{"agent", "react"},
	})

	registry.Register(&Prompt{
		ID:      SessionTitleID,
		Version: PromptV1,
		Content: `Generate a concise 3-5 word title for a chat that starts with the message below.
Reply with the title only, no quotes or punctuation.

Message: {message}`,
		Description: "Short title for a saved chat session",
		Tags:        []string{"session"},
	})
}
