package doctree_test

import (
	"testing"

	"studio/internal/doctree"
	"studio/internal/domain"
)

func tree() *domain.Element {
	return &domain.Element{
		ID:   "root",
		Type: domain.ElementTypeScreen,
		Children: []*domain.Element{
			{ID: "a", Type: domain.ElementTypeBox, Children: []*domain.Element{
				{ID: "a1", Type: domain.ElementTypeLabel},
			}},
			{ID: "b", Type: domain.ElementTypeButton},
		},
	}
}

func TestWalk_DocumentOrder(t *testing.T) {
	var order []string
	doctree.Walk(tree(), func(e *domain.Element) bool {
		order = append(order, e.ID)
		return true
	})
	want := []string{"root", "a", "a1", "b"}
	if len(order) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], order[i])
		}
	}
}

func TestWalk_EarlyStop(t *testing.T) {
	var visited int
	doctree.Walk(tree(), func(e *domain.Element) bool {
		visited++
		return e.ID != "a"
	})
	if visited != 2 {
		t.Errorf("expected walk to stop after 2 nodes, visited %d", visited)
	}
}

func TestFindByID(t *testing.T) {
	e := doctree.FindByID(tree(), "a1")
	if e == nil || e.Type != domain.ElementTypeLabel {
		t.Fatalf("expected to find label a1, got %+v", e)
	}
	if doctree.FindByID(tree(), "missing") != nil {
		t.Error("expected nil for missing ID")
	}
}

func TestClone_Independent(t *testing.T) {
	orig := tree()
	orig.SetAttr("data-checked", "true")

	clone := doctree.Clone(orig)
	clone.SetAttr("data-checked", "false")
	clone.Children[0].ID = "changed"

	if orig.Attr("data-checked") != "true" {
		t.Error("clone mutation leaked into original attrs")
	}
	if orig.Children[0].ID != "a" {
		t.Error("clone mutation leaked into original children")
	}
}

func TestAssignIDs_OnlyFillsMissing(t *testing.T) {
	root := &domain.Element{ID: "keep", Children: []*domain.Element{{}, {ID: "also-keep"}}}
	doctree.AssignIDs(root)
	if root.ID != "keep" || root.Children[1].ID != "also-keep" {
		t.Error("existing IDs must be preserved")
	}
	if root.Children[0].ID == "" {
		t.Error("missing ID was not assigned")
	}
}

func TestReassignIDs_Mapping(t *testing.T) {
	root := tree()
	mapping := doctree.ReassignIDs(root)
	if len(mapping) != 4 {
		t.Fatalf("expected 4 mapped IDs, got %d", len(mapping))
	}
	if mapping["root"] != root.ID {
		t.Error("mapping does not reflect new root ID")
	}
	for old, next := range mapping {
		if old == next {
			t.Errorf("ID %q was not changed", old)
		}
	}
}
