package symbols_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/symbols"
)

// ── fakes ──────────────────────────────────────────────────

type memLocalStore struct {
	syms map[string]domain.Symbol
	err  error
}

func newMemLocalStore() *memLocalStore {
	return &memLocalStore{syms: make(map[string]domain.Symbol)}
}

func (m *memLocalStore) ListSymbols(ownerID string) ([]domain.Symbol, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Symbol
	for _, s := range m.syms {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memLocalStore) CreateSymbol(s *domain.Symbol) error {
	if m.err != nil {
		return m.err
	}
	m.syms[s.ID] = *s
	return nil
}

func (m *memLocalStore) UpdateSymbol(s *domain.Symbol) error {
	if _, ok := m.syms[s.ID]; !ok {
		return errors.New("not found")
	}
	m.syms[s.ID] = *s
	return nil
}

func (m *memLocalStore) DeleteSymbol(id string) error {
	delete(m.syms, id)
	return nil
}

type memBackend struct {
	syms map[string]domain.Symbol
	err  error
}

func newMemBackend() *memBackend {
	return &memBackend{syms: make(map[string]domain.Symbol)}
}

func (m *memBackend) TestConnection(context.Context) error { return m.err }

func (m *memBackend) ListSymbols(_ context.Context, ownerID string, _ domain.SymbolScope) ([]domain.Symbol, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Symbol
	for _, s := range m.syms {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memBackend) CreateSymbol(_ context.Context, s *domain.Symbol) error {
	if m.err != nil {
		return m.err
	}
	m.syms[s.ID] = *s
	return nil
}

func (m *memBackend) UpdateSymbol(_ context.Context, s *domain.Symbol) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.syms[s.ID]; !ok {
		return errors.New("not found")
	}
	m.syms[s.ID] = *s
	return nil
}

func (m *memBackend) DeleteSymbol(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.syms, id)
	return nil
}

func (m *memBackend) Close() error { return nil }

func cardFragment() *domain.Element {
	return &domain.Element{
		ID:   "frag-root",
		Type: domain.ElementTypeBox,
		Children: []*domain.Element{
			{ID: "frag-label", Type: domain.ElementTypeLabel, Name: "Title"},
		},
	}
}

// ── tests ──────────────────────────────────────────────────

func TestCreateRoutesByScope(t *testing.T) {
	local := newMemLocalStore()
	team := newMemBackend()
	org := newMemBackend()
	svc := symbols.NewService(zerolog.Nop(), local, team, org, "team1", "org1")
	ctx := context.Background()

	cases := []struct {
		scope   domain.SymbolScope
		prefix  string
		ownerID string
	}{
		{domain.ScopePrototype, domain.PrefixPrototype, "proto1"},
		{domain.ScopeTeam, domain.PrefixTeam, "team1"},
		{domain.ScopeOrganization, domain.PrefixOrg, "org1"},
	}
	for _, tc := range cases {
		sym, err := svc.Create(ctx, tc.scope, "Card", cardFragment(), "proto1")
		if err != nil {
			t.Fatalf("Create %s: %v", tc.scope, err)
		}
		if !strings.HasPrefix(sym.ID, tc.prefix) {
			t.Errorf("%s symbol ID = %q, want prefix %q", tc.scope, sym.ID, tc.prefix)
		}
		if sym.OwnerID != tc.ownerID {
			t.Errorf("%s symbol owner = %q, want %q", tc.scope, sym.OwnerID, tc.ownerID)
		}
	}
	if len(local.syms) != 1 || len(team.syms) != 1 || len(org.syms) != 1 {
		t.Fatalf("store counts = %d/%d/%d, want 1/1/1",
			len(local.syms), len(team.syms), len(org.syms))
	}
}

func TestCreateClonesFragment(t *testing.T) {
	local := newMemLocalStore()
	svc := symbols.NewService(zerolog.Nop(), local, nil, nil, "", "")
	frag := cardFragment()
	sym, err := svc.Create(context.Background(), domain.ScopePrototype, "Card", frag, "proto1")
	if err != nil {
		t.Fatal(err)
	}
	if sym.Fragment == frag {
		t.Fatal("stored fragment aliases the source element")
	}
	if sym.Fragment.ID == frag.ID {
		t.Error("stored fragment kept the source element IDs")
	}
	frag.Children[0].Name = "Mutated"
	if sym.Fragment.Children[0].Name != "Title" {
		t.Error("mutating the source changed the stored fragment")
	}
}

func TestCreateBackendFailureLeavesNothingBehind(t *testing.T) {
	team := newMemBackend()
	team.err = errors.New("connection refused")
	svc := symbols.NewService(zerolog.Nop(), newMemLocalStore(), team, nil, "team1", "")

	_, err := svc.Create(context.Background(), domain.ScopeTeam, "Card", cardFragment(), "proto1")
	if err == nil {
		t.Fatal("Create should surface the backend failure")
	}
	team.err = nil
	got, _ := svc.EffectiveSymbols(context.Background(), "proto1")
	if len(got) != 0 {
		t.Fatalf("failed create left %d symbols visible", len(got))
	}
}

func TestEffectiveSymbolsOrderAndDegradation(t *testing.T) {
	local := newMemLocalStore()
	local.syms["s-local"] = domain.Symbol{
		ID: "s-local", OwnerID: "proto1", Name: "Local", CreatedAt: time.Unix(1, 0),
	}
	team := newMemBackend()
	team.syms["team-s1"] = domain.Symbol{
		ID: "team-s1", OwnerID: "team1", Name: "Shared", CreatedAt: time.Unix(2, 0),
	}
	org := newMemBackend()
	org.err = errors.New("vpn down")
	svc := symbols.NewService(zerolog.Nop(), local, team, org, "team1", "org1")

	got, err := svc.EffectiveSymbols(context.Background(), "proto1")
	if err != nil {
		t.Fatalf("EffectiveSymbols: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d symbols, want 2 (org scope degrades to empty)", len(got))
	}
	if got[0].ID != "s-local" || got[1].ID != "team-s1" {
		t.Fatalf("order = %s, %s; want local then team", got[0].ID, got[1].ID)
	}
	if got[1].Scope != domain.ScopeTeam {
		t.Errorf("team symbol scope = %s", got[1].Scope)
	}
}

func TestDeleteRoutesByPrefix(t *testing.T) {
	local := newMemLocalStore()
	local.syms["prototype-a"] = domain.Symbol{ID: "prototype-a", OwnerID: "proto1"}
	team := newMemBackend()
	team.syms["team-b"] = domain.Symbol{ID: "team-b", OwnerID: "team1"}
	org := newMemBackend()
	org.syms["global-c"] = domain.Symbol{ID: "global-c", OwnerID: "org1"}
	svc := symbols.NewService(zerolog.Nop(), local, team, org, "team1", "org1")
	ctx := context.Background()

	for _, id := range []string{"prototype-a", "team-b", "global-c"} {
		if err := svc.Delete(ctx, id); err != nil {
			t.Fatalf("Delete(%s): %v", id, err)
		}
	}
	if len(local.syms)+len(team.syms)+len(org.syms) != 0 {
		t.Fatal("a delete landed in the wrong store")
	}
}

func TestDeleteSharedWithoutBackend(t *testing.T) {
	svc := symbols.NewService(zerolog.Nop(), newMemLocalStore(), nil, nil, "", "")
	if err := svc.Delete(context.Background(), "team-x"); err == nil {
		t.Fatal("deleting a team symbol without a team store should fail")
	}
}

func TestPromoteCopiesUnderFreshID(t *testing.T) {
	local := newMemLocalStore()
	local.syms["prototype-a"] = domain.Symbol{
		ID: "prototype-a", OwnerID: "proto1", Name: "Card",
		Scope: domain.ScopePrototype, Fragment: cardFragment(),
	}
	team := newMemBackend()
	svc := symbols.NewService(zerolog.Nop(), local, team, nil, "team1", "")

	promoted, err := svc.Promote(context.Background(), "proto1", "prototype-a", domain.ScopeTeam)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if !strings.HasPrefix(promoted.ID, domain.PrefixTeam) {
		t.Errorf("promoted ID = %q, want team- prefix", promoted.ID)
	}
	if promoted.ID == "prototype-a" {
		t.Error("promotion reused the source ID")
	}
	if promoted.Name != "Card" {
		t.Errorf("promoted name = %q", promoted.Name)
	}
	// The source stays where it was.
	if _, ok := local.syms["prototype-a"]; !ok {
		t.Fatal("promotion removed the source symbol")
	}
	if len(team.syms) != 1 {
		t.Fatalf("team store holds %d symbols, want 1", len(team.syms))
	}
}

func TestPromoteFailureLeavesCollectionsUnchanged(t *testing.T) {
	local := newMemLocalStore()
	local.syms["prototype-a"] = domain.Symbol{
		ID: "prototype-a", OwnerID: "proto1", Name: "Card",
		Scope: domain.ScopePrototype, Fragment: cardFragment(),
	}
	svc := symbols.NewService(zerolog.Nop(), local, nil, nil, "", "")

	_, err := svc.Promote(context.Background(), "proto1", "prototype-a", domain.ScopeTeam)
	if err == nil {
		t.Fatal("promotion without a team store should fail")
	}
	if len(local.syms) != 1 {
		t.Fatal("failed promotion touched the local collection")
	}
}

func TestPromoteRejectsNarrowTarget(t *testing.T) {
	svc := symbols.NewService(zerolog.Nop(), newMemLocalStore(), nil, nil, "", "")
	if _, err := svc.Promote(context.Background(), "proto1", "x", domain.ScopePrototype); err == nil {
		t.Fatal("promotion into prototype scope should be rejected")
	}
}

func TestOnChangeFiresAfterMutations(t *testing.T) {
	local := newMemLocalStore()
	svc := symbols.NewService(zerolog.Nop(), local, nil, nil, "", "")
	fired := 0
	svc.OnChange = func(context.Context) { fired++ }
	ctx := context.Background()

	sym, err := svc.Create(ctx, domain.ScopePrototype, "Card", cardFragment(), "proto1")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Update(ctx, sym); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, sym.ID); err != nil {
		t.Fatal(err)
	}
	if fired != 3 {
		t.Fatalf("OnChange fired %d times, want 3", fired)
	}
}

type blockingBackend struct {
	*memBackend
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) UpdateSymbol(ctx context.Context, s *domain.Symbol) error {
	close(b.entered)
	<-b.release
	return b.memBackend.UpdateSymbol(ctx, s)
}

func TestConcurrentMutationOfSameSymbolIsRejected(t *testing.T) {
	team := &blockingBackend{
		memBackend: newMemBackend(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	svc := symbols.NewService(zerolog.Nop(), newMemLocalStore(), team, nil, "team1", "")
	ctx := context.Background()

	sym := &domain.Symbol{ID: "team-a", Scope: domain.ScopeTeam, OwnerID: "team1", Name: "Card"}
	team.syms[sym.ID] = *sym

	done := make(chan error, 1)
	go func() { done <- svc.Update(ctx, sym) }()
	<-team.entered

	if err := svc.Delete(ctx, sym.ID); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}

	close(team.release)
	if err := <-done; err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if err := svc.Delete(ctx, sym.ID); err != nil {
		t.Fatalf("delete after settle failed: %v", err)
	}
}
