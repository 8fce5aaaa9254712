package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── studio://prototypes ────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"studio://prototypes",
		"All Prototypes",
		mcp.WithMIMEType("application/json"),
	), s.handlePrototypesResource)

	// ── studio://prototype/{prototypeId}/document ──────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"studio://prototype/{prototypeId}/document",
			"Prototype Document",
		),
		s.handleDocumentResource,
	)
}

func (s *Server) handlePrototypesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	protos, err := s.prototypes.ListPrototypes()
	if err != nil {
		return nil, err
	}

	type prototypeSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	var summaries []prototypeSummary
	for _, p := range protos {
		summaries = append(summaries, prototypeSummary{ID: p.ID, Name: p.Name})
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "studio://prototypes",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	// Extract prototypeId from studio://prototype/{prototypeId}/document
	trimmed := strings.TrimPrefix(uri, "studio://prototype/")
	prototypeID, ok := strings.CutSuffix(trimmed, "/document")
	if !ok || prototypeID == "" || trimmed == uri {
		return nil, fmt.Errorf("bad resource URI: %s", uri)
	}

	doc, err := s.store.LoadDocument(prototypeID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
