package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// OverwritePolicy decides what happens when a tool is registered under a
// name that is already taken.
type OverwritePolicy int

const (
	// LastWriteWins replaces the existing tool; the replacement takes the
	// most recent position in enumeration order.
	LastWriteWins OverwritePolicy = iota
	// FirstWriteWins keeps the existing tool and discards the newcomer.
	FirstWriteWins
)

func (p OverwritePolicy) String() string {
	if p == FirstWriteWins {
		return "first"
	}
	return "last"
}

// ParseOverwritePolicy accepts "last" (or "") and "first".
func ParseOverwritePolicy(s string) (OverwritePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last":
		return LastWriteWins, nil
	case "first":
		return FirstWriteWins, nil
	default:
		return LastWriteWins, fmt.Errorf("unknown overwrite policy %q (want last or first)", s)
	}
}

var toolNameRe = regexp.MustCompile(`^\w+$`)

// Registry is an ordered, concurrency-safe set of tools keyed by name.
// Names are case-sensitive.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	policy OverwritePolicy
	logger zerolog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(policy OverwritePolicy, logger zerolog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		policy: policy,
		logger: logger,
	}
}

// Policy returns the registry's overwrite policy.
func (r *Registry) Policy() OverwritePolicy { return r.policy }

// Register adds t, resolving name collisions with the registry's policy.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("cannot register nil tool")
	}
	name := t.Name()
	if name == "" {
		return errors.New("cannot register tool with empty name")
	}
	if !toolNameRe.MatchString(name) {
		// Still registered; the action grammar only matches word characters.
		r.logger.Warn().Str("tool", name).Msg("tool name contains non-word characters and cannot be invoked by an action")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		if r.policy == FirstWriteWins {
			r.logger.Warn().Str("tool", name).Msg("tool already registered, keeping existing")
			return nil
		}
		r.logger.Warn().Str("tool", name).Msg("tool already registered, overwriting")
		r.removeLocked(name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// RegisterAll registers tools in order and stops at the first error.
func (r *Registry) RegisterAll(tools ...Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes the named tool and reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return false
	}
	r.removeLocked(name)
	return true
}

func (r *Registry) removeLocked(name string) {
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// Get looks up a tool by exact name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns the tools in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Description renders one "- name: description" line per tool, or
// "No tools available." for an empty registry.
func (r *Registry) Description() string {
	tools := r.All()
	if len(tools) == 0 {
		return "No tools available."
	}
	lines := make([]string, len(tools))
	for i, t := range tools {
		lines[i] = fmt.Sprintf("- %s: %s", t.Name(), t.Description())
	}
	return strings.Join(lines, "\n")
}

// Clear removes every tool.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]Tool)
	r.order = nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
