// Package engine provides agent orchestration functionality.
// This file contains token counting interfaces and implementations.

package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Tokenizer provides token counting for text.
type Tokenizer interface {
	CountTokens(text string, model string) (int, error)
}

// EstimateTokens provides a rough token count estimation: ~4 characters per
// token plus a small whitespace term.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	charCount := len([]rune(text))
	whitespaceCount := strings.Count(text, " ") + strings.Count(text, "\n") + strings.Count(text, "\t")
	estimated := (charCount / 4) + (whitespaceCount / 6)
	if estimated < 1 {
		return 1
	}
	return estimated
}

// DefaultTokenizer uses estimation as a fallback when no specific tokenizer is available.
type DefaultTokenizer struct{}

// CountTokens implements Tokenizer using estimation.
func (t DefaultTokenizer) CountTokens(text string, model string) (int, error) {
	return EstimateTokens(text), nil
}

// TiktokenTokenizer counts tokens with a tiktoken codec.
type TiktokenTokenizer struct {
	codec tokenizer.Codec
}

// CountTokens implements Tokenizer.
func (t TiktokenTokenizer) CountTokens(text string, _ string) (int, error) {
	if text == "" {
		return 0, nil
	}
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("tiktoken encode: %w", err)
	}
	return len(ids), nil
}

// CountTokensForMessages counts tokens for a slice of messages, including
// about 4 tokens of formatting overhead per message.
func CountTokensForMessages(tk Tokenizer, messages []ChatMessage, model string) (int, error) {
	total := 0
	for _, msg := range messages {
		roleTokens, err := tk.CountTokens(string(msg.Role), model)
		if err != nil {
			return 0, fmt.Errorf("failed to count role tokens: %w", err)
		}
		contentTokens, err := tk.CountTokens(msg.Content, model)
		if err != nil {
			return 0, fmt.Errorf("failed to count content tokens: %w", err)
		}
		total += roleTokens + contentTokens + 4
	}
	return total, nil
}

var (
	codecMu    sync.Mutex
	codecCache = map[string]tokenizer.Codec{}
)

// GetTokenizerForModel returns a tiktoken-backed tokenizer for OpenAI models
// and the estimator for everything else.
func GetTokenizerForModel(model string) Tokenizer {
	if !isOpenAIModel(model) {
		return DefaultTokenizer{}
	}

	codecMu.Lock()
	defer codecMu.Unlock()
	if c, ok := codecCache[model]; ok {
		return TiktokenTokenizer{codec: c}
	}
	c, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		// Unknown model name: newer OpenAI models share cl100k-style vocabularies.
		c, err = tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			return DefaultTokenizer{}
		}
	}
	codecCache[model] = c
	return TiktokenTokenizer{codec: c}
}

func isOpenAIModel(model string) bool {
	for _, p := range []string{"gpt-", "o1", "o3", "o4", "text-embedding-"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
