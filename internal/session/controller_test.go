package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/session"
	"studio/internal/surface"
)

// ── fakes ──────────────────────────────────────────────────

type fakeStore struct {
	mu      sync.Mutex
	doc     *domain.Document
	saves   int
	saved   *domain.Document
	loadErr error
	saveErr error
}

func (s *fakeStore) CreatePrototype(*domain.Prototype, *domain.Document) error { return nil }
func (s *fakeStore) GetPrototype(string) (*domain.Prototype, error)            { return nil, nil }
func (s *fakeStore) ListPrototypes() ([]domain.Prototype, error)               { return nil, nil }
func (s *fakeStore) RenamePrototype(string, string) error                      { return nil }
func (s *fakeStore) DeletePrototype(string) error                              { return nil }

func (s *fakeStore) LoadDocument(string) (*domain.Document, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.doc, nil
}

func (s *fakeStore) SaveDocument(_ string, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.saved = doc
	return nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakeSymbols struct {
	list []domain.Symbol
	err  error
}

func (f *fakeSymbols) EffectiveSymbols(context.Context, string) ([]domain.Symbol, error) {
	return f.list, f.err
}

type gatedAssets struct {
	release chan struct{}
}

func (g *gatedAssets) LoadAll(context.Context) ([]session.Asset, error) {
	<-g.release
	return nil, nil
}

type fakeTemplates struct{}

func (fakeTemplates) DefaultPageFragment() *domain.Element {
	return &domain.Element{Type: domain.ElementTypeBox, Name: "Starter"}
}

func twoPageDocument() *domain.Document {
	return &domain.Document{
		ID:   "doc1",
		Name: "Checkout",
		Pages: []*domain.Page{
			{ID: "p1", Name: "Home", Root: &domain.Element{
				ID: "root1", Type: domain.ElementTypeScreen,
				Children: []*domain.Element{{ID: "e1", Type: domain.ElementTypeLabel}},
			}},
			{ID: "p2", Name: "Cart", Root: &domain.Element{
				ID: "root2", Type: domain.ElementTypeScreen,
				Children: []*domain.Element{{ID: "e2", Type: domain.ElementTypeButton}},
			}},
		},
	}
}

func newController(t *testing.T, deps session.Deps) (*session.Controller, *surface.Mock) {
	t.Helper()
	mock := surface.NewMock()
	deps.Log = zerolog.Nop()
	deps.Surface = mock
	if deps.FrameReadyTimeout == 0 {
		deps.FrameReadyTimeout = 30 * time.Millisecond
	}
	c := session.NewController(deps)
	c.Start(context.Background())
	t.Cleanup(c.Close)
	return c, mock
}

func waitForStatus(t *testing.T, c *session.Controller, want domain.SessionStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Machine().Status() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status = %s, want %s", c.Machine().Status(), want)
}

// ── load ───────────────────────────────────────────────────

func TestOpenLoadsDocumentAndSharedSymbols(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	shared := &fakeSymbols{list: []domain.Symbol{
		{ID: "s1", Scope: domain.ScopeTeam, Name: "team-Card"},
	}}
	c, mock := newController(t, session.Deps{Store: store, Symbols: shared})

	if err := c.Open(context.Background(), "proto1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	st := c.Machine().State()
	if st.Status != domain.StatusReady {
		t.Fatalf("status = %s, want ready", st.Status)
	}
	if st.ActivePageID != "p1" {
		t.Errorf("active page = %q, want p1", st.ActivePageID)
	}
	doc := mock.ReadDocument()
	if doc == nil {
		t.Fatal("document not pushed to surface")
	}
	if !doc.HasSymbol("s1") {
		t.Error("shared symbol not merged into loaded document")
	}
	if len(mock.Pruned) == 0 {
		t.Error("widget prune never issued")
	}
}

func TestOpenSymbolFailureDegrades(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	shared := &fakeSymbols{err: errors.New("team store unreachable")}
	c, mock := newController(t, session.Deps{Store: store, Symbols: shared})

	if err := c.Open(context.Background(), "proto1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := c.Machine().Status(); got != domain.StatusReady {
		t.Fatalf("status = %s, want ready", got)
	}
	if doc := mock.ReadDocument(); len(doc.Symbols) != 0 {
		t.Error("degraded load should carry no shared symbols")
	}
}

func TestOpenFailureEntersError(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("corrupt row")}
	c, _ := newController(t, session.Deps{Store: store})

	if err := c.Open(context.Background(), "proto1"); err == nil {
		t.Fatal("Open should fail")
	}
	st := c.Machine().State()
	if st.Status != domain.StatusError || st.Error == "" {
		t.Fatalf("state = %+v, want error with message", st)
	}
}

type fakeSnapshots struct {
	doc    *domain.Document
	writes int
}

func (f *fakeSnapshots) ReadCurrent(string) (*domain.Document, error) { return f.doc, nil }
func (f *fakeSnapshots) WriteSnapshot(string, *domain.Document) error {
	f.writes++
	return nil
}

func TestOpenFallsBackToSnapshot(t *testing.T) {
	snaps := &fakeSnapshots{doc: twoPageDocument()}
	c, mock := newController(t, session.Deps{Snapshots: snaps})

	if err := c.Open(context.Background(), "proto1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if mock.ReadDocument() == nil {
		t.Fatal("snapshot document not pushed to surface")
	}
}

// ── save ───────────────────────────────────────────────────

func TestRepeatedSaveCollapsesToOnePersistenceCall(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	c, mock := newController(t, session.Deps{Store: store})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}

	mock.Fire(surface.EventContentChanged)
	mock.Fire(surface.EventContentChanged)
	if err := c.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// The session is clean now: another save is a no-op.
	if err := c.Save(ctx); err != nil {
		t.Fatalf("idle Save: %v", err)
	}
	if got := store.saveCount(); got != 1 {
		t.Fatalf("persistence calls = %d, want 1", got)
	}
	st := c.Machine().State()
	if st.Dirty || st.LastSavedAt == nil {
		t.Fatalf("state after save = %+v, want clean with timestamp", st)
	}
}

func TestSaveExtractsManagedSymbols(t *testing.T) {
	doc := twoPageDocument()
	doc.Symbols = []domain.Symbol{
		{ID: "s1", Name: "Card"},
		{ID: "team-s2", Name: "Button"},
		{ID: "org-s3", Name: "Header"},
	}
	store := &fakeStore{doc: doc}
	c, mock := newController(t, session.Deps{Store: store})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}
	mock.Fire(surface.EventContentChanged)
	if err := c.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if store.saved == nil {
		t.Fatal("nothing persisted")
	}
	if len(store.saved.Symbols) != 1 || store.saved.Symbols[0].ID != "s1" {
		t.Fatalf("persisted symbols = %+v, want only the prototype-scoped one",
			store.saved.Symbols)
	}
}

func TestSaveFailureKeepsDirtyAndNotifies(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument(), saveErr: errors.New("io timeout")}
	c, mock := newController(t, session.Deps{Store: store})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}
	mock.Fire(surface.EventContentChanged)
	if err := c.Save(ctx); err == nil {
		t.Fatal("Save should fail")
	}
	st := c.Machine().State()
	if st.Status != domain.StatusReady || !st.Dirty {
		t.Fatalf("state = %+v, want dirty ready", st)
	}
	found := false
	for _, e := range mock.Emitted {
		if e.Event == surface.EventSaveNotice {
			found = true
		}
	}
	if !found {
		t.Error("save failure notice never emitted")
	}
}

func TestSaveWritesSnapshot(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	snaps := &fakeSnapshots{}
	c, mock := newController(t, session.Deps{Store: store, Snapshots: snaps})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}
	mock.Fire(surface.EventContentChanged)
	if err := c.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if snaps.writes != 1 {
		t.Fatalf("snapshot writes = %d, want 1", snaps.writes)
	}
}

// ── page switching ─────────────────────────────────────────

func TestSwitchPageCompletes(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	c, mock := newController(t, session.Deps{Store: store})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}

	if err := c.SwitchPage(ctx, "p2"); err != nil {
		t.Fatalf("SwitchPage: %v", err)
	}
	if got := c.Machine().Status(); got != domain.StatusPageSwitching {
		t.Fatalf("status = %s, want page_switching", got)
	}
	// The frame never reports ready here; the timeout resolves the wait and
	// the switch still completes.
	waitForStatus(t, c, domain.StatusReady)
	st := c.Machine().State()
	if st.ActivePageID != "p2" {
		t.Errorf("active page = %q, want p2", st.ActivePageID)
	}
	if mock.Refreshes != 1 {
		t.Errorf("frame refreshes = %d, want 1", mock.Refreshes)
	}
}

func TestSwitchPageUnknownPage(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	c, _ := newController(t, session.Deps{Store: store})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}
	if err := c.SwitchPage(ctx, "ghost"); err == nil {
		t.Fatal("switch to unknown page should fail")
	}
	if got := c.Machine().Status(); got != domain.StatusReady {
		t.Fatalf("status = %s, want ready", got)
	}
}

func TestSwitchPageRejectedBeforeLoad(t *testing.T) {
	c, _ := newController(t, session.Deps{})
	if err := c.SwitchPage(context.Background(), "p1"); err == nil {
		t.Fatal("switch with no session should fail")
	}
}

func TestSupersededSwitchAbortsSilently(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	gate := &gatedAssets{release: make(chan struct{})}
	c, mock := newController(t, session.Deps{Store: store, Assets: gate})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}

	if err := c.SwitchPage(ctx, "p2"); err != nil {
		t.Fatal(err)
	}
	// Supersede while the first switch is parked on its asset load.
	if err := c.SwitchPage(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	close(gate.release)

	waitForStatus(t, c, domain.StatusReady)
	st := c.Machine().State()
	if st.ActivePageID != "p1" {
		t.Errorf("active page = %q, want p1 from the superseding switch", st.ActivePageID)
	}
	// Give the aborted goroutine a moment to prove it stays silent.
	time.Sleep(50 * time.Millisecond)
	if mock.Refreshes != 1 {
		t.Errorf("frame refreshes = %d, want 1 (superseded switch must not refresh)", mock.Refreshes)
	}
	if got := c.Machine().Status(); got != domain.StatusReady {
		t.Fatalf("status = %s, want ready", got)
	}
}

func TestDeferredTemplateFillsEmptyPage(t *testing.T) {
	doc := twoPageDocument()
	doc.Pages[1].Root.Children = nil
	store := &fakeStore{doc: doc}
	c, _ := newController(t, session.Deps{Store: store, Templates: fakeTemplates{}})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}
	if err := c.SwitchPage(ctx, "p2"); err != nil {
		t.Fatal(err)
	}
	waitForStatus(t, c, domain.StatusReady)

	got := store.doc.Page("p2")
	if len(got.Root.Children) != 1 || got.Root.Children[0].Name != "Starter" {
		t.Fatalf("empty page not filled with template: %+v", got.Root.Children)
	}
	if !c.Machine().State().Dirty {
		t.Error("template injection should mark the session dirty")
	}
}

func TestSwitchAppliesInitialVisibility(t *testing.T) {
	doc := twoPageDocument()
	trigger := &domain.Element{ID: "chk", Type: domain.ElementTypeCheckbox}
	trigger.SetAttr(domain.AttrRevealTargets, "panel")
	panel := &domain.Element{ID: "panel", Type: domain.ElementTypeBox}
	doc.Pages[1].Root.Children = []*domain.Element{trigger, panel}
	store := &fakeStore{doc: doc}
	c, mock := newController(t, session.Deps{Store: store})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}
	if err := c.SwitchPage(ctx, "p2"); err != nil {
		t.Fatal(err)
	}
	waitForStatus(t, c, domain.StatusReady)

	if got := mock.Attrs["panel"][domain.AttrHidden]; got != "true" {
		t.Fatalf("reveal target should start hidden, attr = %q", got)
	}

	c.SetTriggerChecked(ctx, "chk", true)
	if got := mock.Attrs["panel"][domain.AttrHidden]; got != "false" {
		t.Fatalf("checked trigger should reveal target, attr = %q", got)
	}
}

func TestOpenAppliesInitialVisibilityToFirstPage(t *testing.T) {
	doc := twoPageDocument()
	trigger := &domain.Element{ID: "chk", Type: domain.ElementTypeCheckbox}
	trigger.SetAttr(domain.AttrRevealTargets, "panel")
	panel := &domain.Element{ID: "panel", Type: domain.ElementTypeBox}
	doc.Pages[0].Root.Children = []*domain.Element{trigger, panel}
	store := &fakeStore{doc: doc}
	c, mock := newController(t, session.Deps{Store: store})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}

	if got := mock.Attrs["panel"][domain.AttrHidden]; got != "true" {
		t.Fatalf("reveal target on the first page should start hidden, attr = %q", got)
	}

	c.SetTriggerChecked(ctx, "chk", true)
	if got := mock.Attrs["panel"][domain.AttrHidden]; got != "false" {
		t.Fatalf("trigger on the first page should reveal target, attr = %q", got)
	}
}

func TestContentChangeRebuildsTriggerRules(t *testing.T) {
	doc := twoPageDocument()
	store := &fakeStore{doc: doc}
	c, mock := newController(t, session.Deps{Store: store})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}

	// The edit adds a brand-new trigger rule to the open page.
	edited := twoPageDocument()
	trigger := &domain.Element{ID: "chk", Type: domain.ElementTypeCheckbox}
	trigger.SetAttr(domain.AttrRevealTargets, "panel")
	panel := &domain.Element{ID: "panel", Type: domain.ElementTypeBox}
	edited.Pages[0].Root.Children = []*domain.Element{trigger, panel}
	mock.SetDocument(edited)
	mock.Fire(surface.EventContentChanged)

	if got := mock.Attrs["panel"][domain.AttrHidden]; got != "true" {
		t.Fatalf("new reveal target should be hidden after the edit, attr = %q", got)
	}

	c.SetTriggerChecked(ctx, "chk", true)
	if got := mock.Attrs["panel"][domain.AttrHidden]; got != "false" {
		t.Fatalf("new trigger should take effect without a page switch, attr = %q", got)
	}
}

func TestRapidSwitchesSettleOnLastPage(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	c, _ := newController(t, session.Deps{Store: store})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		page := "p2"
		if i%2 == 1 {
			page = "p1"
		}
		if err := c.SwitchPage(ctx, page); err != nil {
			t.Fatalf("switch %d: %v", i, err)
		}
	}
	waitForStatus(t, c, domain.StatusReady)

	st := c.Machine().State()
	if st.ActivePageID != "p2" {
		t.Fatalf("active page = %q, want the last requested switch", st.ActivePageID)
	}
	if st.Status != domain.StatusReady {
		t.Fatalf("status = %q, want ready", st.Status)
	}
}

func TestSwitchClearsDanglingNavLinks(t *testing.T) {
	doc := twoPageDocument()
	btn := doc.Pages[0].Root.Children[0]
	btn.SetAttr(domain.AttrNavTarget, "gone")
	keep := doc.Pages[1].Root.Children[0]
	keep.SetAttr(domain.AttrNavTarget, "p1")
	store := &fakeStore{doc: doc}
	c, _ := newController(t, session.Deps{Store: store})
	ctx := context.Background()
	if err := c.Open(ctx, "proto1"); err != nil {
		t.Fatal(err)
	}
	if err := c.SwitchPage(ctx, "p2"); err != nil {
		t.Fatal(err)
	}
	waitForStatus(t, c, domain.StatusReady)

	if got := btn.Attr(domain.AttrNavTarget); got != "" {
		t.Errorf("dangling nav target = %q, want cleared", got)
	}
	if got := keep.Attr(domain.AttrNavTarget); got != "p1" {
		t.Errorf("valid nav target = %q, want p1", got)
	}
}

// ── lifecycle ──────────────────────────────────────────────

func TestContentChangedEventMarksDirty(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	c, mock := newController(t, session.Deps{Store: store})
	if err := c.Open(context.Background(), "proto1"); err != nil {
		t.Fatal(err)
	}
	mock.Fire(surface.EventContentChanged)
	if !c.Machine().State().Dirty {
		t.Fatal("content change event did not mark the session dirty")
	}
}

func TestCloseUnregistersAllListeners(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	c, mock := newController(t, session.Deps{Store: store})
	if mock.ActiveListeners(surface.EventContentChanged) != 1 {
		t.Fatal("content-changed listener missing after Start")
	}
	c.Close()
	for _, ev := range []surface.EventName{
		surface.EventSurfaceReady,
		surface.EventFrameLoaded,
		surface.EventContentChanged,
		surface.EventPageSelected,
		surface.EventPageAdded,
		surface.EventPageRemoved,
	} {
		if n := mock.ActiveListeners(ev); n != 0 {
			t.Errorf("%s still has %d live listeners after Close", ev, n)
		}
	}
	if got := c.Machine().Status(); got != domain.StatusIdle {
		t.Fatalf("status after Close = %s, want idle", got)
	}
}

func TestPageSelectedEventDrivesSwitch(t *testing.T) {
	store := &fakeStore{doc: twoPageDocument()}
	c, mock := newController(t, session.Deps{Store: store})
	if err := c.Open(context.Background(), "proto1"); err != nil {
		t.Fatal(err)
	}
	mock.Fire(surface.EventPageSelected, map[string]any{"pageId": "p2"})
	waitForStatus(t, c, domain.StatusReady)
	if got := c.Machine().State().ActivePageID; got != "p2" {
		t.Fatalf("active page = %q, want p2", got)
	}
}
