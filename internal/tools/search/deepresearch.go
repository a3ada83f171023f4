package search

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

const findingSummaryLen = 150

// SubQuestions breaks a topic into the research plan.
func SubQuestions(topic string) []string {
	lower := strings.ToLower(topic)
	switch {
	case strings.Contains(lower, "agent"):
		return []string{
			"what is an intelligent agent",
			"characteristics of agents",
			"types of agents in ai",
		}
	case strings.Contains(lower, "python"):
		return []string{
			"history of python programming language",
			"key features of python",
			"python use cases",
		}
	}
	return []string{
		"what is " + lower,
		"benefits of " + lower,
		"examples of " + lower,
	}
}

func summarize(result string) string {
	flat := []rune(strings.ReplaceAll(result, "\n", " "))
	if len(flat) > findingSummaryLen {
		flat = flat[:findingSummaryLen]
	}
	return string(flat) + "..."
}

func deepResearchImpl(ctx context.Context, searchTool engine.Tool, query string) (string, error) {
	topic := strings.TrimSpace(query)
	questions := SubQuestions(topic)

	findings := make([]string, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range questions {
		g.Go(func() error {
			out, err := searchTool.Run(gctx, q)
			if err != nil {
				return fmt.Errorf("research step %d (%s): %w", i+1, q, err)
			}
			findings[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Deep Research Report: %s ===\n\n", topic)
	b.WriteString("Research Plan (Sub-tasks):\n")
	for _, q := range questions {
		fmt.Fprintf(&b, "- %s\n", q)
	}
	b.WriteString("\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "--- Step %d: Researching '%s' ---\n", i+1, q)
		fmt.Fprintf(&b, "Findings: %s\n\n", summarize(findings[i]))
	}
	b.WriteString("=== Final Conclusion ===\n")
	fmt.Fprintf(&b, "Based on %d research steps, we have gathered comprehensive information about '%s'.\n", len(questions), topic)
	b.WriteString("The documents cover definitions, characteristics, and use cases as detailed above.")
	return b.String(), nil
}

// NewDeepResearchTool creates the DeepResearch tool. Sub-questions are
// searched concurrently with searchTool.
func NewDeepResearchTool(searchTool engine.Tool) engine.Tool {
	return engine.NewTool(
		"DeepResearch",
		"Perform deep research on a complex topic. It breaks the topic into sub-questions, searches for each, and summarizes the findings. Use this for broad or complex queries.",
		func(ctx context.Context, query string) (string, error) {
			return deepResearchImpl(ctx, searchTool, query)
		},
	)
}
