package domain

import "time"

// SymbolScope is the sharing radius of a symbol.
type SymbolScope string

const (
	ScopePrototype    SymbolScope = "prototype"
	ScopeTeam         SymbolScope = "team"
	ScopeOrganization SymbolScope = "organization"
)

// ID prefixes per scope. A symbol's ID prefix must always match its scope once
// persisted; unprefixed IDs exist only while a symbol is local to the
// in-memory document. "global-" is a legacy managed prefix still honored when
// deciding what travels with a saved document.
const (
	PrefixPrototype = "prototype-"
	PrefixTeam      = "team-"
	PrefixOrg       = "org-"
	PrefixLegacy    = "global-"
)

// Symbol is a named, reusable fragment of the document tree.
type Symbol struct {
	ID        string      `json:"id"`
	Scope     SymbolScope `json:"scope"`
	Name      string      `json:"name"`
	Fragment  *Element    `json:"fragment"`
	OwnerID   string      `json:"ownerId"` // prototype, team, or org record ID per Scope
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// SymbolStore persists symbols for one scope's owning collection.
type SymbolStore interface {
	ListSymbols(ownerID string) ([]Symbol, error)
	CreateSymbol(s *Symbol) error
	UpdateSymbol(s *Symbol) error
	DeleteSymbol(id string) error
}
