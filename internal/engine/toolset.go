package engine

// ToolSet specifies which categories of tools to include in the registry.
type ToolSet struct {
	Utility   bool // Calculator, DateTime, Weather, Translator
	Memory    bool // Remember
	Knowledge bool // Search over the local knowledge base
	Research  bool // DeepResearch (requires Knowledge)
	Web       bool // WebSearch
	Media     bool // ImageGen
}

// FullToolSet enables every category.
func FullToolSet() ToolSet {
	return ToolSet{Utility: true, Memory: true, Knowledge: true, Research: true, Web: true, Media: true}
}
