package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
	"github.com/ChamsBouzaiene/chatagent/internal/knowledge"
)

// MaxResults is the number of lines the Search tool returns.
const MaxResults = 5

// Retriever is the read side of the knowledge index.
type Retriever interface {
	Root() string
	RootExists() bool
	Search(ctx context.Context, keywords []string, k int) ([]knowledge.Hit, error)
}

var stopwords = map[string]bool{
	"what": true, "is": true, "a": true, "the": true, "an": true,
	"tell": true, "me": true, "about": true, "how": true, "to": true,
	"in": true, "of": true, "for": true, "with": true, "on": true,
}

// Keywords lowercases the query, drops '?' and '.', splits on whitespace and
// removes stop words. When every word is a stop word all words are kept.
func Keywords(query string) []string {
	cleaned := strings.NewReplacer("?", "", ".", "").Replace(strings.ToLower(query))
	raw := strings.Fields(cleaned)
	keywords := make([]string, 0, len(raw))
	for _, w := range raw {
		if !stopwords[w] {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) == 0 {
		return raw
	}
	return keywords
}

func formatKeywords(keywords []string) string {
	return "[" + strings.Join(keywords, ", ") + "]"
}

func searchImpl(ctx context.Context, r Retriever, query string) (string, error) {
	if !r.RootExists() {
		return "", fmt.Errorf("knowledge base directory not found: %s", r.Root())
	}

	keywords := Keywords(query)
	hits, err := r.Search(ctx, keywords, MaxResults)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "No relevant information found for keywords: " + formatKeywords(keywords), nil
	}

	lines := make([]string, 0, len(hits))
	for _, h := range hits {
		lines = append(lines, h.String())
	}
	return strings.Join(lines, "\n"), nil
}

// NewSearchTool creates the Search tool over the knowledge index.
func NewSearchTool(r Retriever) engine.Tool {
	return engine.NewTool(
		"Search",
		"Search the local knowledge base for keywords. Useful for questions about specific topics such as Python or agents.",
		func(ctx context.Context, query string) (string, error) {
			return searchImpl(ctx, r, query)
		},
	)
}
