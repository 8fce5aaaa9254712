package visibility

import (
	"context"
	"sync"

	"studio/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Dimension-based visibility (states/users)
// ─────────────────────────────────────────────────────────────

// TagsFromElement reads the allowed values for one dimension off an element's
// attributes. An absent tag list means "visible under all values".
func TagsFromElement(e *domain.Element, dim domain.Dimension) []string {
	switch dim {
	case domain.DimensionUser:
		return splitIDList(e.Attr(domain.AttrUserTags))
	default:
		return splitIDList(e.Attr(domain.AttrStateTags))
	}
}

// dimensionPass is one OR-condition: no active value, no tags on the element,
// or the active value among the element's tags.
func dimensionPass(active string, tags []string) bool {
	if active == "" || len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if t == active {
			return true
		}
	}
	return false
}

// ElementVisible evaluates an element under the active state and user values.
// State and user are orthogonal dimensions, so the two OR-conditions compose
// with AND rather than overriding one another.
func ElementVisible(e *domain.Element, activeState, activeUser string) bool {
	statePass := dimensionPass(activeState, TagsFromElement(e, domain.DimensionState))
	userPass := dimensionPass(activeUser, TagsFromElement(e, domain.DimensionUser))
	return statePass && userPass
}

// DimensionEmitter is the narrow event sink used to broadcast active-value
// changes process-wide.
type DimensionEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// EventDimensionChanged is broadcast whenever an active dimension value
// changes; listeners re-evaluate element visibility.
const EventDimensionChanged = "visibility:dimension-changed"

// ActiveDimensions holds the currently active value per dimension and
// broadcasts changes. The zero active value ("") means no value is set and
// every element passes that dimension.
type ActiveDimensions struct {
	mu      sync.Mutex
	values  map[domain.Dimension]string
	emitter DimensionEmitter
}

// NewActiveDimensions creates the broadcast holder. emitter may be nil in
// tests that only read values back.
func NewActiveDimensions(emitter DimensionEmitter) *ActiveDimensions {
	return &ActiveDimensions{
		values:  make(map[domain.Dimension]string),
		emitter: emitter,
	}
}

// Set records a dimension's active value and broadcasts the change.
func (a *ActiveDimensions) Set(ctx context.Context, dim domain.Dimension, value string) {
	a.mu.Lock()
	prev := a.values[dim]
	a.values[dim] = value
	a.mu.Unlock()

	if prev == value {
		return
	}
	if a.emitter != nil {
		a.emitter.Emit(ctx, EventDimensionChanged, map[string]string{
			"dimension": string(dim),
			"value":     value,
		})
	}
}

// Get returns the active value for a dimension ("" when unset).
func (a *ActiveDimensions) Get(dim domain.Dimension) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.values[dim]
}

// Visible evaluates an element under the currently active values.
func (a *ActiveDimensions) Visible(e *domain.Element) bool {
	return ElementVisible(e, a.Get(domain.DimensionState), a.Get(domain.DimensionUser))
}
