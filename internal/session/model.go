package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

// Session is a saved chat transcript.
type Session struct {
	ID        string               `json:"id" yaml:"id"`
	Title     string               `json:"title" yaml:"title"`
	Provider  string               `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model     string               `json:"model,omitempty" yaml:"model,omitempty"`
	CreatedAt time.Time            `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" yaml:"updated_at"`
	History   []engine.ChatMessage `json:"history" yaml:"history"`
}

// New starts an empty session with a random id.
func New(provider, model string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Provider:  provider,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Meta returns the listing view of s.
func (s *Session) Meta() SessionMeta {
	return SessionMeta{
		ID:        s.ID,
		Title:     s.Title,
		Provider:  s.Provider,
		Model:     s.Model,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  len(s.History),
	}
}

// SessionMeta is a lightweight representation for listings.
type SessionMeta struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Provider  string    `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model     string    `json:"model,omitempty" yaml:"model,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	Messages  int       `json:"messages" yaml:"messages"`
}
