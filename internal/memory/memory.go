// Package memory holds what the agent knows about the user across
// conversations: profile attributes, preferences and loose facts.
package memory

import (
	"context"
	"fmt"
	"strings"
)

// Store persists user memory. Every write is durable when it returns.
type Store interface {
	// GetContext renders the memory block for the system prompt; empty when
	// nothing is stored.
	GetContext(ctx context.Context) (string, error)
	// UpdateProfile sets key to value, keeping the key's original position.
	UpdateProfile(ctx context.Context, key, value string) error
	// AddPreference records p unless already present and reports whether it was added.
	AddPreference(ctx context.Context, p string) (bool, error)
	// AddFact records f unless already present and reports whether it was added.
	AddFact(ctx context.Context, f string) (bool, error)
	Snapshot(ctx context.Context) (Data, error)
	Clear(ctx context.Context) error
	Close() error
}

// ProfileEntry is one profile attribute.
type ProfileEntry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Profile is an insertion-ordered set of attributes.
type Profile []ProfileEntry

// Set updates key in place or appends it.
func (p Profile) Set(key, value string) Profile {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, ProfileEntry{Key: key, Value: value})
}

// Get returns the value for key.
func (p Profile) Get(key string) (string, bool) {
	for _, e := range p {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Data is the full memory document.
type Data struct {
	Profile     Profile  `json:"profile" yaml:"profile"`
	Preferences []string `json:"preferences" yaml:"preferences"`
	Facts       []string `json:"facts" yaml:"facts"`
}

// Empty reports whether nothing is stored.
func (d Data) Empty() bool {
	return len(d.Profile) == 0 && len(d.Preferences) == 0 && len(d.Facts) == 0
}

func (d Data) clone() Data {
	return Data{
		Profile:     append(Profile(nil), d.Profile...),
		Preferences: append([]string(nil), d.Preferences...),
		Facts:       append([]string(nil), d.Facts...),
	}
}

// FormatContext renders d as the prompt block, one line per non-empty section.
func FormatContext(d Data) string {
	var parts []string
	if len(d.Profile) > 0 {
		kv := make([]string, len(d.Profile))
		for i, e := range d.Profile {
			kv[i] = fmt.Sprintf("%s: %s", e.Key, e.Value)
		}
		parts = append(parts, "User Profile: ["+strings.Join(kv, ", ")+"]")
	}
	if len(d.Preferences) > 0 {
		parts = append(parts, "User Preferences: ["+strings.Join(d.Preferences, "; ")+"]")
	}
	if len(d.Facts) > 0 {
		parts = append(parts, "Known Facts: ["+strings.Join(d.Facts, "; ")+"]")
	}
	return strings.Join(parts, "\n")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
