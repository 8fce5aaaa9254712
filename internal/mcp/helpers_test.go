package mcpserver

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"studio/internal/domain"
)

func TestParseScope(t *testing.T) {
	cases := []struct {
		raw     string
		want    domain.SymbolScope
		wantErr bool
	}{
		{"prototype", domain.ScopePrototype, false},
		{"team", domain.ScopeTeam, false},
		{"organization", domain.ScopeOrganization, false},
		{"global", "", true},
		{"", "", true},
	}
	for _, c := range cases {
		got, err := parseScope(c.raw)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseScope(%q): expected error", c.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseScope(%q): %v", c.raw, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseScope(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestTextResult(t *testing.T) {
	res := textResult("hello")
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", res.Content[0])
	}
	if tc.Text != "hello" {
		t.Errorf("text = %q", tc.Text)
	}
}

func TestJSONResult(t *testing.T) {
	res, err := jsonResult(map[string]string{"id": "p1"})
	if err != nil {
		t.Fatalf("jsonResult: %v", err)
	}
	tc := res.Content[0].(mcp.TextContent)
	if !strings.Contains(tc.Text, `"id": "p1"`) {
		t.Errorf("unexpected JSON: %s", tc.Text)
	}
}
