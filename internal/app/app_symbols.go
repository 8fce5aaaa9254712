package app

import (
	"studio/internal/domain"
)

// ============================================================
// Symbols
// ============================================================

// ListSymbols returns the symbols visible to a prototype across all scopes.
func (a *App) ListSymbols(prototypeID string) ([]domain.Symbol, error) {
	return a.symbols.EffectiveSymbols(a.ctx, prototypeID)
}

// CreateSymbol creates a symbol from an element fragment in the given scope.
func (a *App) CreateSymbol(scope, name string, fragment *domain.Element, prototypeID string) (*domain.Symbol, error) {
	return a.symbols.Create(a.ctx, domain.SymbolScope(scope), name, fragment, prototypeID)
}

// UpdateSymbol saves symbol changes to whichever store its ID routes to.
func (a *App) UpdateSymbol(sym *domain.Symbol) error {
	return a.symbols.Update(a.ctx, sym)
}

// DeleteSymbol removes a symbol from whichever store its ID routes to.
func (a *App) DeleteSymbol(id string) error {
	return a.symbols.Delete(a.ctx, id)
}

// PromoteSymbol copies a symbol into a wider scope under a fresh ID.
func (a *App) PromoteSymbol(prototypeID, symbolID, target string) (*domain.Symbol, error) {
	return a.symbols.Promote(a.ctx, prototypeID, symbolID, domain.SymbolScope(target))
}
