package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

// Writer is the write side of the long-term memory store.
type Writer interface {
	UpdateProfile(ctx context.Context, key, value string) error
	AddPreference(ctx context.Context, preference string) (bool, error)
	AddFact(ctx context.Context, fact string) (bool, error)
}

// Category names accepted by the Remember tool.
const (
	CategoryProfile    = "profile"
	CategoryPreference = "preference"
	CategoryFact       = "fact"
)

// ParseEntry splits "category: content". Input without a colon is a fact.
func ParseEntry(query string) (category, content string) {
	if c, rest, ok := strings.Cut(query, ":"); ok {
		return strings.ToLower(strings.TrimSpace(c)), strings.TrimSpace(rest)
	}
	return CategoryFact, strings.TrimSpace(query)
}

func rememberImpl(ctx context.Context, w Writer, query string) (string, error) {
	category, content := ParseEntry(query)
	if content == "" {
		return "", fmt.Errorf("nothing to remember for category %q", category)
	}

	switch category {
	case CategoryProfile:
		key, value, ok := strings.Cut(content, " is ")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return "", fmt.Errorf("profile updates need 'key is value' format, got: %s", content)
		}
		if err := w.UpdateProfile(ctx, key, value); err != nil {
			return "", fmt.Errorf("save profile: %w", err)
		}
		return fmt.Sprintf("Saved profile: %s = %s", key, value), nil

	case CategoryPreference:
		if _, err := w.AddPreference(ctx, content); err != nil {
			return "", fmt.Errorf("save preference: %w", err)
		}
		return "Saved preference: " + content, nil

	case CategoryFact:
		if _, err := w.AddFact(ctx, content); err != nil {
			return "", fmt.Errorf("save fact: %w", err)
		}
		return "Saved fact: " + content, nil
	}

	return "", fmt.Errorf("unknown memory category '%s', use profile, preference or fact", category)
}

// NewRememberTool creates the Remember tool backed by w.
func NewRememberTool(w Writer) engine.Tool {
	return engine.NewTool(
		"Remember",
		"Save important information about the user. Format: [category: content]. Categories: profile, preference, fact. Example: [preference: likes python]",
		func(ctx context.Context, query string) (string, error) {
			return rememberImpl(ctx, w, query)
		},
	)
}
