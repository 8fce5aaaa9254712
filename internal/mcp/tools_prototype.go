package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrototypeTools() {
	s.mcp.AddTool(mcp.NewTool("list_prototypes",
		mcp.WithDescription("List all prototypes with their IDs, names and timestamps."),
	), s.handleListPrototypes)

	s.mcp.AddTool(mcp.NewTool("create_prototype",
		mcp.WithDescription("Create a new prototype seeded with a single empty page."),
		mcp.WithString("name", mcp.Description("Display name of the prototype"), mcp.Required()),
		mcp.WithString("teamId", mcp.Description("Team the prototype belongs to")),
		mcp.WithString("orgId", mcp.Description("Organization the prototype belongs to")),
	), s.handleCreatePrototype)

	s.mcp.AddTool(mcp.NewTool("set_active_prototype",
		mcp.WithDescription("Set the prototype that subsequent tools operate on when no explicit prototypeId is given."),
		mcp.WithString("prototypeId", mcp.Description("ID of the prototype to make active"), mcp.Required()),
	), s.handleSetActivePrototype)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages of a prototype in display order."),
		mcp.WithString("prototypeId", mcp.Description("ID of the prototype (defaults to the active one)")),
	), s.handleListPages)

	s.mcp.AddTool(mcp.NewTool("add_page",
		mcp.WithDescription("Append a new page to a prototype. Content for the new page is created when it is first opened."),
		mcp.WithString("prototypeId", mcp.Description("ID of the prototype (defaults to the active one)")),
		mcp.WithString("name", mcp.Description("Page name; auto-numbered when empty")),
	), s.handleAddPage)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Return the full document of a prototype as JSON, including every page's element tree."),
		mcp.WithString("prototypeId", mcp.Description("ID of the prototype (defaults to the active one)")),
	), s.handleGetDocument)
}

func (s *Server) handleListPrototypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	protos, err := s.prototypes.ListPrototypes()
	if err != nil {
		return nil, fmt.Errorf("list prototypes: %w", err)
	}
	return jsonResult(protos)
}

func (s *Server) handleCreatePrototype(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	proto, err := s.prototypes.CreatePrototype(ctx,
		name,
		req.GetString("teamId", ""),
		req.GetString("orgId", ""),
	)
	if err != nil {
		return nil, fmt.Errorf("create prototype: %w", err)
	}

	s.activePrototypeID = proto.ID
	return jsonResult(proto)
}

func (s *Server) handleSetActivePrototype(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("prototypeId", "")
	if _, err := s.prototypes.GetPrototype(id); err != nil {
		return nil, fmt.Errorf("get prototype: %w", err)
	}
	s.activePrototypeID = id
	return textResult(fmt.Sprintf("Active prototype set to %s", id)), nil
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prototypeID, err := s.resolvePrototypeID(req)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.LoadDocument(prototypeID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	type pageInfo struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Order int    `json:"order"`
	}
	pages := make([]pageInfo, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		pages = append(pages, pageInfo{ID: p.ID, Name: p.Name, Order: p.Order})
	}
	return jsonResult(pages)
}

func (s *Server) handleAddPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prototypeID, err := s.resolvePrototypeID(req)
	if err != nil {
		return nil, err
	}

	page, err := s.prototypes.AddPage(ctx, prototypeID, req.GetString("name", ""))
	if err != nil {
		return nil, fmt.Errorf("add page: %w", err)
	}
	return jsonResult(page)
}

func (s *Server) handleGetDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prototypeID, err := s.resolvePrototypeID(req)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.LoadDocument(prototypeID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return jsonResult(doc)
}
