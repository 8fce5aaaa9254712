// Package mcpserver exposes the studio to AI agents over the Model Context
// Protocol. The server runs as a separate process against the shared SQLite
// database; a running GUI picks up external changes through its session
// watcher. When a controller is supplied the agent also gets a session of
// its own: open, edit, switch pages and save with the same state machine
// the GUI uses.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"studio/internal/domain"
	"studio/internal/service"
	"studio/internal/session"
	"studio/internal/symbols"
	"studio/internal/visibility"
)

// EventEmitter notifies the frontend about agent activity.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Server is the MCP server for the studio.
type Server struct {
	mcp     *server.MCPServer
	emitter EventEmitter

	// Services (injected from the app layer)
	prototypes *service.PrototypeService
	store      domain.PrototypeStore
	symbols    *symbols.Service

	// Live-session handles; nil in standalone mode.
	controller *session.Controller
	dimensions *visibility.ActiveDimensions

	// Active prototype context (set by set_active_prototype tool)
	activePrototypeID string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
// Controller and Dimensions are optional: without them the session tools are
// not registered and the server operates on storage alone.
type Deps struct {
	Emitter    EventEmitter
	Prototypes *service.PrototypeService
	Store      domain.PrototypeStore
	Symbols    *symbols.Service
	Controller *session.Controller
	Dimensions *visibility.ActiveDimensions
}

// New creates and configures an MCP server with all tools registered.
func New(_ context.Context, deps Deps) *Server {
	s := &Server{
		emitter:    deps.Emitter,
		prototypes: deps.Prototypes,
		store:      deps.Store,
		symbols:    deps.Symbols,
		controller: deps.Controller,
		dimensions: deps.Dimensions,
	}

	s.mcp = server.NewMCPServer(
		"studio-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerPrototypeTools()
	s.registerSymbolTools()
	s.registerResources()
	if s.controller != nil {
		s.registerSessionTools()
	}

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolvePrototypeID returns the explicit prototypeId or the active one.
func (s *Server) resolvePrototypeID(req mcp.CallToolRequest) (string, error) {
	if id := req.GetString("prototypeId", ""); id != "" {
		return id, nil
	}
	if s.activePrototypeID != "" {
		return s.activePrototypeID, nil
	}
	return "", fmt.Errorf("no prototypeId provided and no active prototype set (use set_active_prototype first)")
}
