// Package symbols maintains the effective set of reusable fragments visible
// inside one editing session, derived from the prototype-local, team, and
// organization collections.
package symbols

import (
	"sort"
	"strings"

	"studio/internal/domain"
)

// PrefixForScope returns the persisted ID prefix for a scope.
func PrefixForScope(scope domain.SymbolScope) string {
	switch scope {
	case domain.ScopeTeam:
		return domain.PrefixTeam
	case domain.ScopeOrganization:
		return domain.PrefixOrg
	default:
		return domain.PrefixPrototype
	}
}

// HasManagedPrefix reports whether the ID belongs to a shared scope that is
// injected at load time rather than traveling with the saved document.
func HasManagedPrefix(id string) bool {
	return strings.HasPrefix(id, domain.PrefixTeam) ||
		strings.HasPrefix(id, domain.PrefixOrg) ||
		strings.HasPrefix(id, domain.PrefixLegacy)
}

func hasAnyScopePrefix(id string) bool {
	return HasManagedPrefix(id) || strings.HasPrefix(id, domain.PrefixPrototype)
}

// ApplyPrefix prefixes an ID for the target scope. Idempotent per ID: an ID
// that already carries a scope prefix is returned unchanged, so re-creating a
// symbol from an already-merged instance never double-prefixes.
func ApplyPrefix(id string, scope domain.SymbolScope) string {
	if id == "" || hasAnyScopePrefix(id) {
		return id
	}
	return PrefixForScope(scope) + id
}

// ListEffective returns the symbols visible in one session: local symbols
// first with their in-memory IDs untouched, then team symbols under the team-
// prefix, then organization symbols under the org- prefix. Creation order
// breaks ties within a scope.
func ListEffective(local, team, org []domain.Symbol) []domain.Symbol {
	out := make([]domain.Symbol, 0, len(local)+len(team)+len(org))
	out = append(out, sortedByCreation(local)...)
	for _, s := range sortedByCreation(team) {
		s.ID = ApplyPrefix(s.ID, domain.ScopeTeam)
		s.Scope = domain.ScopeTeam
		out = append(out, s)
	}
	for _, s := range sortedByCreation(org) {
		s.ID = ApplyPrefix(s.ID, domain.ScopeOrganization)
		s.Scope = domain.ScopeOrganization
		out = append(out, s)
	}
	return out
}

func sortedByCreation(in []domain.Symbol) []domain.Symbol {
	out := make([]domain.Symbol, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// MergeIntoDocument adds any symbol not already present (by ID) to the
// document's symbol collection. Pure: the input document is not mutated, and
// merging the same set twice yields the same result as merging once.
func MergeIntoDocument(doc *domain.Document, syms []domain.Symbol) *domain.Document {
	if doc == nil {
		return nil
	}
	out := *doc
	out.Symbols = make([]domain.Symbol, len(doc.Symbols), len(doc.Symbols)+len(syms))
	copy(out.Symbols, doc.Symbols)

	seen := make(map[string]struct{}, len(out.Symbols))
	for _, s := range out.Symbols {
		seen[s.ID] = struct{}{}
	}
	for _, s := range syms {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out.Symbols = append(out.Symbols, s)
	}
	return &out
}

// ExtractPersistable returns a document whose symbol collection contains only
// entries that travel with the prototype's own storage — anything under a
// managed shared-scope prefix is stripped. Applied before every save so team
// and organization symbols are never silently forked into local copies.
func ExtractPersistable(doc *domain.Document) *domain.Document {
	if doc == nil {
		return nil
	}
	out := *doc
	out.Symbols = make([]domain.Symbol, 0, len(doc.Symbols))
	for _, s := range doc.Symbols {
		if HasManagedPrefix(s.ID) {
			continue
		}
		out.Symbols = append(out.Symbols, s)
	}
	return &out
}
