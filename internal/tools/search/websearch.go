package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

// DefaultWebEndpoint is the DuckDuckGo HTML search page.
const DefaultWebEndpoint = "https://html.duckduckgo.com/html/"

const maxWebResults = 5

// WebConfig configures the WebSearch tool.
type WebConfig struct {
	Enabled  bool
	Endpoint string
	Client   *http.Client
}

// WebResult is one organic search result.
type WebResult struct {
	Title   string
	Link    string
	Snippet string
}

type webSearcher struct {
	endpoint string
	client   *http.Client
}

func (w *webSearcher) search(ctx context.Context, query string) ([]WebResult, error) {
	u, err := url.Parse(w.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid web search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; chatagent)")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse web search results: %w", err)
	}
	return parseResults(doc), nil
}

func parseResults(doc *goquery.Document) []WebResult {
	var results []WebResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		a := s.Find(".result__a").First()
		title := strings.TrimSpace(a.Text())
		if title == "" {
			return true
		}
		href, _ := a.Attr("href")
		results = append(results, WebResult{
			Title:   title,
			Link:    resolveLink(href),
			Snippet: strings.Join(strings.Fields(s.Find(".result__snippet").First().Text()), " "),
		})
		return len(results) < maxWebResults
	})
	return results
}

// resolveLink unwraps DuckDuckGo redirect links ("//duckduckgo.com/l/?uddg=...").
func resolveLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func formatWebResults(query string, results []WebResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No web results found for %q", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Web results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n   Link: %s", i+1, r.Title, r.Link)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "\n   Snippet: %s", r.Snippet)
		}
	}
	return b.String()
}

// NewWebSearchTool creates the WebSearch tool. When cfg.Enabled is false the
// tool stays registered but answers with a notice instead of going online.
func NewWebSearchTool(cfg WebConfig) engine.Tool {
	ws := &webSearcher{endpoint: cfg.Endpoint, client: cfg.Client}
	if ws.endpoint == "" {
		ws.endpoint = DefaultWebEndpoint
	}
	if ws.client == nil {
		ws.client = &http.Client{Timeout: 15 * time.Second}
	}

	return engine.NewTool(
		"WebSearch",
		"Search the internet. Input: search keywords. Returns the top results with links.",
		func(ctx context.Context, query string) (string, error) {
			query = strings.TrimSpace(query)
			if query == "" {
				return "", errors.New("please provide search keywords")
			}
			if !cfg.Enabled {
				return fmt.Sprintf("Web search is not configured, so no online results are available for %q. Set tools.web_search.enabled to true to search the internet.", query), nil
			}
			results, err := ws.search(ctx, query)
			if err != nil {
				return "", err
			}
			return formatWebResults(query, results), nil
		},
	)
}
