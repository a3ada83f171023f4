// Package mcptool exposes the tools of Model Context Protocol servers as
// engine tools named "<server>_<tool>".
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

const (
	clientName    = "chatagent"
	clientVersion = "1.0.0"

	// defaultArgument carries the action argument when a tool's input schema
	// does not single out one property.
	defaultArgument = "query"
)

var nonWord = regexp.MustCompile(`\W+`)

// ServerConfig describes one stdio MCP server.
type ServerConfig struct {
	Name    string
	Command string
	Args    []string
	// Env entries (KEY=VALUE) are appended to the inherited environment.
	Env []string
}

// Server is an initialized connection to one MCP server.
type Server struct {
	name   string
	client *client.Client
}

// Connect launches cfg.Command and performs the MCP handshake over its
// stdin and stdout.
func Connect(ctx context.Context, cfg ServerConfig) (*Server, error) {
	if cfg.Name == "" {
		return nil, errors.New("mcp server name is required")
	}
	if cfg.Command == "" {
		return nil, errors.Errorf("mcp server %s: command is required", cfg.Name)
	}
	c, err := client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
	if err != nil {
		return nil, errors.Wrapf(err, "start mcp server %s", cfg.Name)
	}
	return NewServer(ctx, cfg.Name, c)
}

// NewServer starts c and initializes the session. c is closed on failure.
func NewServer(ctx context.Context, name string, c *client.Client) (*Server, error) {
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, errors.Wrapf(err, "start mcp client %s", name)
	}
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}
	if _, err := c.Initialize(ctx, req); err != nil {
		_ = c.Close()
		return nil, errors.Wrapf(err, "initialize mcp server %s", name)
	}
	return &Server{name: name, client: c}, nil
}

// Name returns the configured server name.
func (s *Server) Name() string { return s.name }

// Tools lists the server's tools wrapped as engine tools.
func (s *Server) Tools(ctx context.Context) ([]engine.Tool, error) {
	res, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, errors.Wrapf(err, "list tools of mcp server %s", s.name)
	}
	out := make([]engine.Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		out = append(out, &remoteTool{server: s, remote: t})
	}
	return out, nil
}

func (s *Server) Close() error {
	return s.client.Close()
}

// remoteTool forwards the action argument to one MCP tool.
type remoteTool struct {
	server *Server
	remote mcp.Tool
}

// ToolName joins server and tool names, replacing characters the action
// grammar cannot match with underscores.
func ToolName(server, tool string) string {
	return nonWord.ReplaceAllString(server+"_"+tool, "_")
}

func (t *remoteTool) Name() string { return ToolName(t.server.name, t.remote.Name) }

func (t *remoteTool) Description() string {
	if d := strings.TrimSpace(t.remote.Description); d != "" {
		return strings.Join(strings.Fields(d), " ")
	}
	return "No description"
}

func (t *remoteTool) Run(ctx context.Context, query string) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = t.remote.Name
	req.Params.Arguments = arguments(t.remote.InputSchema, query)

	res, err := t.server.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcp call %s: %w", t.Name(), err)
	}
	text := contentText(res.Content)
	if res.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return "", errors.New(text)
	}
	return text, nil
}

// arguments maps the free-text action argument onto the tool's input. A JSON
// object is passed through; otherwise the text fills the only required
// property, the only property, or "query".
func arguments(schema mcp.ToolInputSchema, query string) map[string]any {
	trimmed := strings.TrimSpace(query)
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			return obj
		}
	}
	key := defaultArgument
	switch {
	case len(schema.Required) == 1:
		key = schema.Required[0]
	case len(schema.Properties) == 1:
		for k := range schema.Properties {
			key = k
		}
	}
	return map[string]any{key: query}
}

func contentText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Manager owns the connections to every configured server.
type Manager struct {
	servers []*Server
	logger  zerolog.Logger
}

// ConnectAll connects to each server in order. A server that fails to start
// is logged and skipped so the agent still runs with the rest.
func ConnectAll(ctx context.Context, configs []ServerConfig, logger zerolog.Logger) *Manager {
	m := &Manager{logger: logger}
	for _, cfg := range configs {
		s, err := Connect(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Str("server", cfg.Name).Msg("mcp server unavailable")
			continue
		}
		logger.Info().Str("server", cfg.Name).Msg("mcp server connected")
		m.servers = append(m.servers, s)
	}
	return m
}

// NewManager wraps already connected servers.
func NewManager(logger zerolog.Logger, servers ...*Server) *Manager {
	return &Manager{servers: servers, logger: logger}
}

// Tools collects the tools of every connected server. Listing failures are
// logged and that server contributes nothing.
func (m *Manager) Tools(ctx context.Context) []engine.Tool {
	if m == nil {
		return nil
	}
	var out []engine.Tool
	for _, s := range m.servers {
		tools, err := s.Tools(ctx)
		if err != nil {
			m.logger.Warn().Err(err).Str("server", s.name).Msg("list mcp tools")
			continue
		}
		m.logger.Debug().Str("server", s.name).Int("tools", len(tools)).Msg("mcp tools loaded")
		out = append(out, tools...)
	}
	return out
}

// Close disconnects every server and returns the first error.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	var first error
	for _, s := range m.servers {
		if err := s.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close mcp server %s", s.name)
		}
	}
	m.servers = nil
	return first
}
