package symbols

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studio/internal/doctree"
	"studio/internal/domain"
	"studio/internal/sharedstore"
)

// Service routes symbol operations to the store that owns each scope: the
// prototype's local store, the team backend, or the organization backend.
// Shared backends are optional; a missing one makes its scope read as empty
// instead of failing the session.
type Service struct {
	log   zerolog.Logger
	local domain.SymbolStore
	team  sharedstore.Backend
	org   sharedstore.Backend

	teamID string
	orgID  string

	// OnChange, when set, runs after every successful mutation so the
	// surface can be told to re-render its symbol palette.
	OnChange func(ctx context.Context)

	// inFlight dedupes concurrent mutations of the same symbol; a shared
	// backend call can take long enough for a double-click to race it.
	inFlight   map[string]struct{}
	inFlightMu sync.Mutex
}

func NewService(log zerolog.Logger, local domain.SymbolStore, team, org sharedstore.Backend, teamID, orgID string) *Service {
	return &Service{
		log:    log.With().Str("component", "symbols").Logger(),
		local:  local,
		team:   team,
		org:    org,
		teamID: teamID,
		orgID:  orgID,
	}
}

// EffectiveSymbols returns the full set visible in one session: local first,
// then team, then organization, each shared entry under its scope prefix.
// A shared backend that errors degrades to an empty scope.
func (s *Service) EffectiveSymbols(ctx context.Context, prototypeID string) ([]domain.Symbol, error) {
	var local []domain.Symbol
	if s.local != nil {
		var err error
		local, err = s.local.ListSymbols(prototypeID)
		if err != nil {
			return nil, fmt.Errorf("list local symbols: %w", err)
		}
	}
	team := s.listShared(ctx, s.team, s.teamID, domain.ScopeTeam)
	org := s.listShared(ctx, s.org, s.orgID, domain.ScopeOrganization)
	return ListEffective(local, team, org), nil
}

func (s *Service) listShared(ctx context.Context, backend sharedstore.Backend, ownerID string, scope domain.SymbolScope) []domain.Symbol {
	if backend == nil || ownerID == "" {
		return nil
	}
	syms, err := backend.ListSymbols(ctx, ownerID, scope)
	if err != nil {
		s.log.Warn().Err(err).Str("scope", string(scope)).Msg("shared symbol list failed, scope reads empty")
		return nil
	}
	return syms
}

// Create stores a new symbol in the target scope. The backend write happens
// first: only a symbol the owning store accepted becomes visible, so a
// backend failure leaves every collection exactly as it was.
func (s *Service) Create(ctx context.Context, scope domain.SymbolScope, name string, fragment *domain.Element, prototypeID string) (*domain.Symbol, error) {
	if fragment == nil {
		return nil, fmt.Errorf("create symbol: empty fragment")
	}
	now := time.Now()
	sym := &domain.Symbol{
		ID:        ApplyPrefix(uuid.New().String(), scope),
		Scope:     scope,
		Name:      name,
		Fragment:  doctree.Clone(fragment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	doctree.ReassignIDs(sym.Fragment)

	switch scope {
	case domain.ScopeTeam:
		sym.OwnerID = s.teamID
	case domain.ScopeOrganization:
		sym.OwnerID = s.orgID
	default:
		sym.Scope = domain.ScopePrototype
		sym.OwnerID = prototypeID
	}

	if err := s.create(ctx, sym); err != nil {
		return nil, fmt.Errorf("create %s symbol: %w", sym.Scope, err)
	}
	s.changed(ctx)
	return sym, nil
}

func (s *Service) create(ctx context.Context, sym *domain.Symbol) error {
	switch sym.Scope {
	case domain.ScopeTeam:
		if s.team == nil {
			return fmt.Errorf("no team store configured")
		}
		return s.team.CreateSymbol(ctx, sym)
	case domain.ScopeOrganization:
		if s.org == nil {
			return fmt.Errorf("no organization store configured")
		}
		return s.org.CreateSymbol(ctx, sym)
	default:
		if s.local == nil {
			return fmt.Errorf("no local store configured")
		}
		return s.local.CreateSymbol(sym)
	}
}

// Update rewrites a symbol's name and fragment in its owning store.
func (s *Service) Update(ctx context.Context, sym *domain.Symbol) error {
	if sym == nil {
		return fmt.Errorf("update symbol: nil")
	}
	if !s.tryLock(sym.ID) {
		return fmt.Errorf("update symbol %s: operation already running", sym.ID)
	}
	defer s.unlock(sym.ID)
	sym.UpdatedAt = time.Now()
	var err error
	switch {
	case HasManagedPrefix(sym.ID):
		backend := s.backendFor(sym.ID)
		if backend == nil {
			return fmt.Errorf("update symbol %s: scope store not configured", sym.ID)
		}
		err = backend.UpdateSymbol(ctx, sym)
	default:
		if s.local == nil {
			return fmt.Errorf("update symbol %s: no local store", sym.ID)
		}
		err = s.local.UpdateSymbol(sym)
	}
	if err != nil {
		return fmt.Errorf("update symbol %s: %w", sym.ID, err)
	}
	s.changed(ctx)
	return nil
}

// Delete removes a symbol from its owning store. Copies of a shared symbol
// already merged into open documents are untouched.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.tryLock(id) {
		return fmt.Errorf("delete symbol %s: operation already running", id)
	}
	defer s.unlock(id)
	var err error
	switch {
	case HasManagedPrefix(id):
		backend := s.backendFor(id)
		if backend == nil {
			return fmt.Errorf("delete symbol %s: scope store not configured", id)
		}
		err = backend.DeleteSymbol(ctx, id)
	default:
		if s.local == nil {
			return fmt.Errorf("delete symbol %s: no local store", id)
		}
		err = s.local.DeleteSymbol(id)
	}
	if err != nil {
		return fmt.Errorf("delete symbol %s: %w", id, err)
	}
	s.changed(ctx)
	return nil
}

// Promote copies a symbol into a wider scope under a fresh ID. The source
// symbol is never moved or altered: documents referencing it keep working,
// and a failed promotion leaves every collection unchanged.
func (s *Service) Promote(ctx context.Context, prototypeID, symbolID string, target domain.SymbolScope) (*domain.Symbol, error) {
	if target != domain.ScopeTeam && target != domain.ScopeOrganization {
		return nil, fmt.Errorf("promote symbol %s: invalid target scope %s", symbolID, target)
	}
	src, err := s.find(ctx, prototypeID, symbolID)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, target, src.Name, src.Fragment, prototypeID)
}

func (s *Service) find(ctx context.Context, prototypeID, symbolID string) (*domain.Symbol, error) {
	all, err := s.EffectiveSymbols(ctx, prototypeID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == symbolID {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("symbol %s not found", symbolID)
}

// backendFor maps a symbol ID to its shared backend by prefix. The legacy
// global- prefix routes to the organization store. Returns nil for
// prototype-local IDs and for unconfigured scopes.
func (s *Service) backendFor(id string) sharedstore.Backend {
	switch {
	case strings.HasPrefix(id, domain.PrefixTeam):
		return s.team
	case strings.HasPrefix(id, domain.PrefixOrg), strings.HasPrefix(id, domain.PrefixLegacy):
		return s.org
	default:
		return nil
	}
}

func (s *Service) tryLock(id string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if s.inFlight == nil {
		s.inFlight = make(map[string]struct{})
	}
	if _, ok := s.inFlight[id]; ok {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Service) unlock(id string) {
	s.inFlightMu.Lock()
	delete(s.inFlight, id)
	s.inFlightMu.Unlock()
}

func (s *Service) changed(ctx context.Context) {
	if s.OnChange != nil {
		s.OnChange(ctx)
	}
}

// Close releases the shared backends.
func (s *Service) Close() {
	for _, b := range []sharedstore.Backend{s.team, s.org} {
		if b == nil {
			continue
		}
		if err := b.Close(); err != nil {
			s.log.Warn().Err(err).Msg("shared store close failed")
		}
	}
}
