package domain

// VisibilityRule associates a trigger control with the elements it reveals or
// hides. Target lists are deduplicated when the rule is built.
type VisibilityRule struct {
	TriggerID     string   `json:"triggerId"`
	RadioGroup    string   `json:"radioGroup,omitempty"`
	RevealTargets []string `json:"revealTargets,omitempty"`
	HideTargets   []string `json:"hideTargets,omitempty"`
}

// Dimension is an orthogonal visibility axis used to preview the document
// under different named conditions.
type Dimension string

const (
	DimensionState Dimension = "state"
	DimensionUser  Dimension = "user"
)

// DimensionTag lists the values of one dimension under which an element is
// visible. An element with no tag for a dimension is visible under all of
// that dimension's values.
type DimensionTag struct {
	ElementID string    `json:"elementId"`
	Dimension Dimension `json:"dimension"`
	Values    []string  `json:"values"`
}
