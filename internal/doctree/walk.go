// Package doctree provides the single tree-traversal used by the symbol,
// visibility, and ID-assignment logic. Features parameterize the shared walk
// with predicates instead of each keeping its own recursive helper.
package doctree

import (
	"github.com/google/uuid"

	"studio/internal/domain"
)

// Visitor is called for every node. Returning false stops the walk early.
type Visitor func(e *domain.Element) bool

// Walk visits root and every descendant in depth-first, document order.
func Walk(root *domain.Element, visit Visitor) {
	if root == nil {
		return
	}
	walk(root, visit)
}

func walk(e *domain.Element, visit Visitor) bool {
	if !visit(e) {
		return false
	}
	for _, c := range e.Children {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

// Find returns the first element matching pred, or nil.
func Find(root *domain.Element, pred func(*domain.Element) bool) *domain.Element {
	var found *domain.Element
	Walk(root, func(e *domain.Element) bool {
		if pred(e) {
			found = e
			return false
		}
		return true
	})
	return found
}

// FindByID returns the element with the given ID, or nil.
func FindByID(root *domain.Element, id string) *domain.Element {
	return Find(root, func(e *domain.Element) bool { return e.ID == id })
}

// Collect returns every element matching pred, in document order.
func Collect(root *domain.Element, pred func(*domain.Element) bool) []*domain.Element {
	var out []*domain.Element
	Walk(root, func(e *domain.Element) bool {
		if pred(e) {
			out = append(out, e)
		}
		return true
	})
	return out
}

// CollectIDs returns the IDs of every element in the subtree.
func CollectIDs(root *domain.Element) []string {
	var ids []string
	Walk(root, func(e *domain.Element) bool {
		ids = append(ids, e.ID)
		return true
	})
	return ids
}

// Clone deep-copies an element subtree, preserving IDs.
func Clone(e *domain.Element) *domain.Element {
	if e == nil {
		return nil
	}
	out := *e
	if e.Attrs != nil {
		out.Attrs = make(map[string]string, len(e.Attrs))
		for k, v := range e.Attrs {
			out.Attrs[k] = v
		}
	}
	if e.Children != nil {
		out.Children = make([]*domain.Element, len(e.Children))
		for i, c := range e.Children {
			out.Children[i] = Clone(c)
		}
	}
	return &out
}

// AssignIDs gives a fresh UUID to every node in the subtree that has none.
// Used when instantiating symbol fragments and palette templates so two
// instances never share element IDs.
func AssignIDs(root *domain.Element) {
	Walk(root, func(e *domain.Element) bool {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		return true
	})
}

// ReassignIDs gives every node a fresh UUID unconditionally and returns a
// mapping from old to new IDs so attribute references can be rewritten.
func ReassignIDs(root *domain.Element) map[string]string {
	mapping := make(map[string]string)
	Walk(root, func(e *domain.Element) bool {
		old := e.ID
		e.ID = uuid.New().String()
		if old != "" {
			mapping[old] = e.ID
		}
		return true
	})
	return mapping
}
