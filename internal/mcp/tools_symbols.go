package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"studio/internal/domain"
)

func (s *Server) registerSymbolTools() {
	s.mcp.AddTool(mcp.NewTool("list_symbols",
		mcp.WithDescription("List the symbols visible to a prototype across all scopes (prototype, team, organization)."),
		mcp.WithString("prototypeId", mcp.Description("ID of the prototype (defaults to the active one)")),
	), s.handleListSymbols)

	s.mcp.AddTool(mcp.NewTool("create_symbol",
		mcp.WithDescription("Create a reusable symbol from an element fragment in the given scope."),
		mcp.WithString("name", mcp.Description("Display name of the symbol"), mcp.Required()),
		mcp.WithString("scope", mcp.Description("Target scope: prototype, team or organization"), mcp.Required()),
		mcp.WithString("fragmentJson", mcp.Description("Element tree of the symbol as JSON"), mcp.Required()),
		mcp.WithString("prototypeId", mcp.Description("Owning prototype for prototype-scoped symbols (defaults to the active one)")),
	), s.handleCreateSymbol)

	s.mcp.AddTool(mcp.NewTool("promote_symbol",
		mcp.WithDescription("Copy a symbol into a wider scope under a fresh ID. The source symbol is left untouched."),
		mcp.WithString("symbolId", mcp.Description("ID of the symbol to promote"), mcp.Required()),
		mcp.WithString("target", mcp.Description("Target scope: team or organization"), mcp.Required()),
		mcp.WithString("prototypeId", mcp.Description("Prototype whose symbol set contains the source (defaults to the active one)")),
	), s.handlePromoteSymbol)

	s.mcp.AddTool(mcp.NewTool("delete_symbol",
		mcp.WithDescription("Delete a symbol. The ID prefix determines which backing store the delete is routed to."),
		mcp.WithString("symbolId", mcp.Description("ID of the symbol to delete"), mcp.Required()),
	), s.handleDeleteSymbol)
}

func parseScope(raw string) (domain.SymbolScope, error) {
	switch domain.SymbolScope(raw) {
	case domain.ScopePrototype:
		return domain.ScopePrototype, nil
	case domain.ScopeTeam:
		return domain.ScopeTeam, nil
	case domain.ScopeOrganization:
		return domain.ScopeOrganization, nil
	default:
		return "", fmt.Errorf("unknown scope %q (want prototype, team or organization)", raw)
	}
}

func (s *Server) handleListSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prototypeID, err := s.resolvePrototypeID(req)
	if err != nil {
		return nil, err
	}

	syms, err := s.symbols.EffectiveSymbols(ctx, prototypeID)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	return jsonResult(syms)
}

func (s *Server) handleCreateSymbol(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope, err := parseScope(req.GetString("scope", ""))
	if err != nil {
		return nil, err
	}

	var fragment domain.Element
	if err := json.Unmarshal([]byte(req.GetString("fragmentJson", "")), &fragment); err != nil {
		return nil, fmt.Errorf("parse fragmentJson: %w", err)
	}

	prototypeID := req.GetString("prototypeId", "")
	if prototypeID == "" {
		prototypeID = s.activePrototypeID
	}
	if scope == domain.ScopePrototype && prototypeID == "" {
		return nil, fmt.Errorf("prototype-scoped symbols need a prototypeId")
	}

	sym, err := s.symbols.Create(ctx, scope, req.GetString("name", ""), &fragment, prototypeID)
	if err != nil {
		return nil, fmt.Errorf("create symbol: %w", err)
	}
	return jsonResult(sym)
}

func (s *Server) handlePromoteSymbol(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := parseScope(req.GetString("target", ""))
	if err != nil {
		return nil, err
	}

	prototypeID, err := s.resolvePrototypeID(req)
	if err != nil {
		return nil, err
	}

	sym, err := s.symbols.Promote(ctx, prototypeID, req.GetString("symbolId", ""), target)
	if err != nil {
		return nil, fmt.Errorf("promote symbol: %w", err)
	}
	return jsonResult(sym)
}

func (s *Server) handleDeleteSymbol(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("symbolId", "")
	if err := s.symbols.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete symbol: %w", err)
	}
	return textResult(fmt.Sprintf("Deleted symbol %s", id)), nil
}
