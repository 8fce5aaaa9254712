// Package components is the registry of widget types the rendering surface is
// allowed to instantiate. The registry doubles as the template source: each
// definition can stamp out a fresh default fragment for the canvas.
package components

import (
	"fmt"
	"sync"

	"studio/internal/domain"
)

// Definition describes one widget type.
type Definition struct {
	Type  domain.ElementType
	Label string // palette display name

	DefaultWidth  float64
	DefaultHeight float64

	// Template returns a fresh default fragment for this widget, or nil for
	// widgets created empty. Must never return a shared instance.
	Template func() *domain.Element
}

// Registry manages registered widget definitions.
type Registry struct {
	mu       sync.RWMutex
	defs     map[domain.ElementType]Definition
	order    []domain.ElementType
	builtins bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[domain.ElementType]Definition)}
}

// Register adds a definition. Panics on duplicate registration: two widgets
// claiming the same type is a programming error, not a runtime condition.
func (r *Registry) Register(d Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[d.Type]; exists {
		panic(fmt.Sprintf("component registry: duplicate registration for widget type %q", d.Type))
	}
	r.defs[d.Type] = d
	r.order = append(r.order, d.Type)
}

// Get returns the definition for a widget type.
func (r *Registry) Get(t domain.ElementType) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[t]
	return d, ok
}

// AllowList returns every registered widget type in registration order. The
// surface prunes anything not on this list from incoming documents.
func (r *Registry) AllowList() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	for i, t := range r.order {
		out[i] = string(t)
	}
	return out
}

// ForEach iterates all registered definitions in registration order.
func (r *Registry) ForEach(fn func(Definition)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.order {
		fn(r.defs[t])
	}
}

// NewElement stamps out a fresh element of the given widget type, sized to
// the definition's defaults.
func (r *Registry) NewElement(t domain.ElementType) (*domain.Element, error) {
	d, ok := r.Get(t)
	if !ok {
		return nil, fmt.Errorf("unknown widget type: %s", t)
	}
	if d.Template != nil {
		return d.Template(), nil
	}
	return &domain.Element{
		Type:   d.Type,
		Name:   d.Label,
		Width:  d.DefaultWidth,
		Height: d.DefaultHeight,
	}, nil
}
