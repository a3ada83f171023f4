package media

import (
	"context"
	"net/url"
	"strings"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

// PlaceholderURL is the image service used for generated images.
const PlaceholderURL = "https://placehold.co/600x400"

// ImageURL returns the placeholder image URL for a description.
func ImageURL(description string) string {
	return PlaceholderURL + "?text=" + url.QueryEscape(strings.TrimSpace(description))
}

// NewImageGenTool creates the ImageGen tool. It answers with a Markdown image
// pointing at a placeholder rendering of the description.
func NewImageGenTool() engine.Tool {
	return engine.NewTool(
		"ImageGen",
		"Generate an image from a text description. Use this when the user asks to draw, generate, or create an image. Input: description of the image.",
		func(_ context.Context, query string) (string, error) {
			return "![Generated Image](" + ImageURL(query) + ")", nil
		},
	)
}
