package app

import (
	"studio/internal/domain"
)

// ============================================================
// Conditional visibility
// ============================================================

// SetTriggerChecked toggles a checkbox or radio trigger and re-evaluates
// conditional visibility on the current page.
func (a *App) SetTriggerChecked(triggerID string, checked bool) {
	a.controller.SetTriggerChecked(a.ctx, triggerID, checked)
}

// SetActiveDimension sets the active preview value for a dimension
// ("state" or "user"); an empty value clears it. Element visibility on the
// open page is re-evaluated under the new value.
func (a *App) SetActiveDimension(dimension, value string) {
	a.dimensions.Set(a.ctx, domain.Dimension(dimension), value)
	a.controller.ApplyDimensionVisibility(a.ctx, a.dimensions)
}

// ActiveDimension returns the active preview value for a dimension.
func (a *App) ActiveDimension(dimension string) string {
	return a.dimensions.Get(domain.Dimension(dimension))
}
