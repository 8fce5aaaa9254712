package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"studio/internal/domain"
)

// Session tools are only registered when the server holds a controller.
// Without one, agents edit storage directly and a running GUI catches up
// through its session watcher.
func (s *Server) registerSessionTools() {
	s.mcp.AddTool(mcp.NewTool("open_prototype",
		mcp.WithDescription("Open a prototype in the live editing session."),
		mcp.WithString("prototypeId", mcp.Description("ID of the prototype to open"), mcp.Required()),
	), s.handleOpenPrototype)

	s.mcp.AddTool(mcp.NewTool("switch_page",
		mcp.WithDescription("Switch the live session to another page of the open prototype."),
		mcp.WithString("pageId", mcp.Description("ID of the page to switch to"), mcp.Required()),
	), s.handleSwitchPage)

	s.mcp.AddTool(mcp.NewTool("save_session",
		mcp.WithDescription("Persist the open prototype's current document. A no-op when there are no unsaved changes."),
	), s.handleSaveSession)

	s.mcp.AddTool(mcp.NewTool("session_state",
		mcp.WithDescription("Return the live session state: status, dirty flag, active page and last save time."),
	), s.handleSessionState)

	s.mcp.AddTool(mcp.NewTool("set_trigger_checked",
		mcp.WithDescription("Toggle a checkbox or radio trigger on the current page and re-evaluate conditional visibility."),
		mcp.WithString("triggerId", mcp.Description("Element ID of the trigger"), mcp.Required()),
		mcp.WithString("checked", mcp.Description("true or false"), mcp.Required()),
	), s.handleSetTriggerChecked)

	s.mcp.AddTool(mcp.NewTool("set_active_dimension",
		mcp.WithDescription("Set the active value for a preview dimension (state or user). An empty value clears it."),
		mcp.WithString("dimension", mcp.Description("Dimension name: state or user"), mcp.Required()),
		mcp.WithString("value", mcp.Description("Active value; empty clears the dimension")),
	), s.handleSetActiveDimension)
}

func (s *Server) handleOpenPrototype(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("prototypeId", "")
	if err := s.controller.Open(ctx, id); err != nil {
		return nil, fmt.Errorf("open prototype: %w", err)
	}
	s.activePrototypeID = id
	return jsonResult(s.controller.Machine().State())
}

func (s *Server) handleSwitchPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if err := s.controller.SwitchPage(ctx, pageID); err != nil {
		return nil, fmt.Errorf("switch page: %w", err)
	}
	return textResult(fmt.Sprintf("Switching to page %s", pageID)), nil
}

func (s *Server) handleSaveSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.controller.Save(ctx); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return jsonResult(s.controller.Machine().State())
}

func (s *Server) handleSessionState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.controller.Machine().State())
}

func (s *Server) handleSetTriggerChecked(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	triggerID := req.GetString("triggerId", "")
	checked := req.GetString("checked", "") == "true"
	s.controller.SetTriggerChecked(ctx, triggerID, checked)
	return textResult(fmt.Sprintf("Trigger %s set to %v", triggerID, checked)), nil
}

func (s *Server) handleSetActiveDimension(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dim := domain.Dimension(req.GetString("dimension", ""))
	switch dim {
	case domain.DimensionState, domain.DimensionUser:
	default:
		return nil, fmt.Errorf("unknown dimension %q (want state or user)", dim)
	}

	s.dimensions.Set(ctx, dim, req.GetString("value", ""))
	s.controller.ApplyDimensionVisibility(ctx, s.dimensions)
	return textResult(fmt.Sprintf("Dimension %s set to %q", dim, s.dimensions.Get(dim))), nil
}
