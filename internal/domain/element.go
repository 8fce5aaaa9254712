package domain

import "encoding/json"

// ElementType identifies which palette component an element was created from.
type ElementType string

const (
	ElementTypeScreen   ElementType = "screen"
	ElementTypeBox      ElementType = "box"
	ElementTypeLabel    ElementType = "label"
	ElementTypeImage    ElementType = "image"
	ElementTypeButton   ElementType = "button"
	ElementTypeCheckbox ElementType = "checkbox"
	ElementTypeRadio    ElementType = "radio"
	ElementTypeInput    ElementType = "input"
	ElementTypeSymbol   ElementType = "symbol-instance"
)

// Well-known attribute keys read and written by the controller.
const (
	AttrRevealTargets = "data-reveal-targets" // comma-separated element IDs
	AttrHideTargets   = "data-hide-targets"   // comma-separated element IDs
	AttrRadioGroup    = "data-radio-group"
	AttrChecked       = "data-checked"
	AttrStateTags     = "data-state-tags" // comma-separated dimension values
	AttrUserTags      = "data-user-tags"
	AttrHidden        = "data-hidden"
	AttrNavTarget     = "data-nav-target" // page ID a control navigates to
	AttrSymbolRef     = "data-symbol-id"
)

// Element is one node of a page's render tree.
type Element struct {
	ID       string            `json:"id"`
	Type     ElementType       `json:"type"`
	Name     string            `json:"name"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Width    float64           `json:"width"`
	Height   float64           `json:"height"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []*Element        `json:"children,omitempty"`
}

// Attr returns the attribute value, or "" when unset.
func (e *Element) Attr(key string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[key]
}

// SetAttr sets an attribute, allocating the map on first use.
func (e *Element) SetAttr(key, value string) {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[key] = value
}

// MarshalFragment serializes an element subtree for storage.
func MarshalFragment(e *Element) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalFragment parses a stored element subtree.
func UnmarshalFragment(data string) (*Element, error) {
	var e Element
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return nil, err
	}
	return &e, nil
}
