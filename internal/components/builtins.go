package components

import "studio/internal/domain"

// RegisterBuiltins registers the stock widget set. Calling it again on the
// same registry is a no-op, so startup paths that run more than once (app
// boot and the standalone automation server) never trip the duplicate panic.
func (r *Registry) RegisterBuiltins() {
	r.mu.Lock()
	if r.builtins {
		r.mu.Unlock()
		return
	}
	r.builtins = true
	r.mu.Unlock()

	r.Register(Definition{Type: domain.ElementTypeScreen, Label: "Screen", DefaultWidth: 1280, DefaultHeight: 800})
	r.Register(Definition{Type: domain.ElementTypeBox, Label: "Box", DefaultWidth: 200, DefaultHeight: 120})
	r.Register(Definition{Type: domain.ElementTypeLabel, Label: "Label", DefaultWidth: 120, DefaultHeight: 24})
	r.Register(Definition{Type: domain.ElementTypeImage, Label: "Image", DefaultWidth: 160, DefaultHeight: 120})
	r.Register(Definition{
		Type: domain.ElementTypeButton, Label: "Button", DefaultWidth: 120, DefaultHeight: 36,
		Template: func() *domain.Element {
			e := &domain.Element{Type: domain.ElementTypeButton, Name: "Button", Width: 120, Height: 36}
			e.SetAttr(domain.AttrNavTarget, "")
			return e
		},
	})
	r.Register(Definition{
		Type: domain.ElementTypeCheckbox, Label: "Checkbox", DefaultWidth: 20, DefaultHeight: 20,
		Template: func() *domain.Element {
			e := &domain.Element{Type: domain.ElementTypeCheckbox, Name: "Checkbox", Width: 20, Height: 20}
			e.SetAttr(domain.AttrChecked, "false")
			return e
		},
	})
	r.Register(Definition{
		Type: domain.ElementTypeRadio, Label: "Radio", DefaultWidth: 20, DefaultHeight: 20,
		Template: func() *domain.Element {
			e := &domain.Element{Type: domain.ElementTypeRadio, Name: "Radio", Width: 20, Height: 20}
			e.SetAttr(domain.AttrChecked, "false")
			e.SetAttr(domain.AttrRadioGroup, "")
			return e
		},
	})
	r.Register(Definition{Type: domain.ElementTypeInput, Label: "Input", DefaultWidth: 200, DefaultHeight: 32})
	r.Register(Definition{Type: domain.ElementTypeSymbol, Label: "Symbol", DefaultWidth: 200, DefaultHeight: 120})
}

// DefaultPageFragment returns the starter content injected into a page that
// is still empty when first opened.
func (r *Registry) DefaultPageFragment() *domain.Element {
	return &domain.Element{
		Type:   domain.ElementTypeBox,
		Name:   "Content",
		Width:  600,
		Height: 400,
		Children: []*domain.Element{
			{Type: domain.ElementTypeLabel, Name: "New page", Width: 200, Height: 32},
		},
	}
}
