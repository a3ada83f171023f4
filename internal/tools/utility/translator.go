package utility

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

var englishToChinese = map[string]string{
	"hello":     "你好",
	"world":     "世界",
	"thank you": "谢谢",
	"goodbye":   "再见",
	"yes":       "是",
	"no":        "否",
}

var chineseToEnglish = func() map[string]string {
	m := make(map[string]string, len(englishToChinese))
	for en, zh := range englishToChinese {
		m[zh] = en
	}
	return m
}()

// translationRequest is the parsed form of "src->dst text".
type translationRequest struct {
	Source string
	Target string
	Text   string
}

func parseTranslation(query string) translationRequest {
	src, rest, ok := strings.Cut(query, "->")
	if !ok {
		return translationRequest{Source: "auto", Target: "auto", Text: strings.TrimSpace(query)}
	}
	src = strings.ToLower(strings.TrimSpace(src))
	rest = strings.TrimLeft(rest, " \t")
	dst, text, ok := strings.Cut(rest, " ")
	if !ok {
		return translationRequest{Source: src, Target: "unknown", Text: strings.TrimSpace(rest)}
	}
	return translationRequest{
		Source: src,
		Target: strings.ToLower(strings.TrimSpace(dst)),
		Text:   strings.TrimSpace(text),
	}
}

func lookupTranslation(req translationRequest) (string, bool) {
	key := strings.ToLower(req.Text)
	switch {
	case req.Source == "zh" || req.Target == "en":
		v, ok := chineseToEnglish[req.Text]
		return v, ok
	case req.Source == "en" || req.Target == "zh":
		v, ok := englishToChinese[key]
		return v, ok
	}
	if v, ok := englishToChinese[key]; ok {
		return v, true
	}
	v, ok := chineseToEnglish[req.Text]
	return v, ok
}

func translateImpl(query string) (string, error) {
	req := parseTranslation(query)
	if req.Text == "" {
		return "", errors.New("please provide text to translate")
	}
	if translated, ok := lookupTranslation(req); ok {
		return fmt.Sprintf("Translation:\nSource (%s): %s\nTarget (%s): %s", req.Source, req.Text, req.Target, translated), nil
	}
	return fmt.Sprintf("Translation not available for %q (%s -> %s). Only a small built-in English/Chinese dictionary is supported.",
		req.Text, req.Source, req.Target), nil
}

// NewTranslatorTool creates the Translator tool.
func NewTranslatorTool() engine.Tool {
	return engine.NewTool(
		"Translator",
		"Translate text. Format: '<source>-><target> text', e.g. 'en->zh Hello' or 'zh->en 你好'",
		func(_ context.Context, query string) (string, error) {
			return translateImpl(query)
		},
	)
}
