// Package visibility decides which elements are rendered under the current
// trigger selections and the active state/user dimension values.
package visibility

import (
	"strings"

	"studio/internal/doctree"
	"studio/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Reveal/hide trigger rules
// ─────────────────────────────────────────────────────────────

// RuleFromElement builds a visibility rule from a trigger element's
// attributes. Returns nil when the element configures no targets.
func RuleFromElement(e *domain.Element) *domain.VisibilityRule {
	reveal := splitIDList(e.Attr(domain.AttrRevealTargets))
	hide := splitIDList(e.Attr(domain.AttrHideTargets))
	if len(reveal) == 0 && len(hide) == 0 {
		return nil
	}
	return &domain.VisibilityRule{
		TriggerID:     e.ID,
		RadioGroup:    e.Attr(domain.AttrRadioGroup),
		RevealTargets: reveal,
		HideTargets:   hide,
	}
}

func splitIDList(raw string) []string {
	if raw == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Evaluator tracks trigger rules and checked state for one page and computes
// target visibility. It is store-free; the session controller feeds it
// attribute changes and applies the visibility it reports.
type Evaluator struct {
	rules   []*domain.VisibilityRule
	byGroup map[string][]string // radio group → member trigger IDs
	checked map[string]bool
}

// NewEvaluator collects trigger rules from every element of a page tree.
// Members of a mutually-exclusive selection group are all observed so that
// selecting one member re-evaluates visibility contributed by every member.
func NewEvaluator(root *domain.Element) *Evaluator {
	ev := &Evaluator{
		byGroup: make(map[string][]string),
		checked: make(map[string]bool),
	}
	doctree.Walk(root, func(e *domain.Element) bool {
		if r := RuleFromElement(e); r != nil {
			ev.rules = append(ev.rules, r)
			ev.checked[r.TriggerID] = e.Attr(domain.AttrChecked) == "true"
		}
		if g := e.Attr(domain.AttrRadioGroup); g != "" {
			ev.byGroup[g] = append(ev.byGroup[g], e.ID)
		}
		return true
	})
	return ev
}

// InitialStates returns the rendered state every target starts in before the
// trigger's current value is evaluated: hidden when the element appears in
// any reveal list, shown when it appears in any hide list.
func (ev *Evaluator) InitialStates() map[string]bool {
	visible := make(map[string]bool)
	for _, r := range ev.rules {
		for _, id := range r.HideTargets {
			visible[id] = true
		}
	}
	for _, r := range ev.rules {
		for _, id := range r.RevealTargets {
			visible[id] = false
		}
	}
	return visible
}

// SetChecked records a trigger's new checked state and returns the resulting
// visibility of every affected target. When the trigger belongs to a radio
// group, the other members are unchecked first so the whole group's
// contributions are re-evaluated, not just the member that changed.
func (ev *Evaluator) SetChecked(triggerID string, checked bool) map[string]bool {
	if checked {
		if group := ev.groupOf(triggerID); group != "" {
			for _, member := range ev.byGroup[group] {
				if member != triggerID {
					ev.checked[member] = false
				}
			}
		}
	}
	ev.checked[triggerID] = checked
	return ev.Evaluate()
}

func (ev *Evaluator) groupOf(triggerID string) string {
	for group, members := range ev.byGroup {
		for _, m := range members {
			if m == triggerID {
				return group
			}
		}
	}
	return ""
}

// Evaluate computes visibility for every target under the current checked
// states. A target is visible iff its reveal condition passes (no reveal rule
// names it, or a revealing trigger is checked) AND its hide condition passes
// (no hide rule names it, or no hiding trigger is checked).
func (ev *Evaluator) Evaluate() map[string]bool {
	inReveal := make(map[string]bool)
	revealed := make(map[string]bool)
	inHide := make(map[string]bool)
	hidden := make(map[string]bool)

	for _, r := range ev.rules {
		on := ev.checked[r.TriggerID]
		for _, id := range r.RevealTargets {
			inReveal[id] = true
			if on {
				revealed[id] = true
			}
		}
		for _, id := range r.HideTargets {
			inHide[id] = true
			if on {
				hidden[id] = true
			}
		}
	}

	visible := make(map[string]bool)
	for id := range inReveal {
		visible[id] = revealed[id]
	}
	for id := range inHide {
		pass := !hidden[id]
		if prev, ok := visible[id]; ok {
			visible[id] = prev && pass
		} else {
			visible[id] = pass
		}
	}
	return visible
}

// Checked reports a trigger's current checked state.
func (ev *Evaluator) Checked(triggerID string) bool {
	return ev.checked[triggerID]
}
