package prompts

// PromptVersion represents a version identifier for prompts.
type PromptVersion string

const (
	// PromptV1 is the first version of prompts.
	PromptV1 PromptVersion = "1.0.0"
)

// Prompt represents a versioned prompt template with metadata.
type Prompt struct {
	ID          string        // Unique identifier (e.g., "react", "session_title")
	Version     PromptVersion // Version of this prompt
	Content     string        // Template text with {placeholder} slots
	Description string        // Human-readable description
	Tags        []string
	Deprecated  bool
}
