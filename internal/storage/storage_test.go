package storage_test

import (
	"path/filepath"
	"testing"

	"studio/internal/domain"
	"studio/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "studio.db"), dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleDocument() *domain.Document {
	root := &domain.Element{
		ID:   "root",
		Type: domain.ElementTypeScreen,
		Children: []*domain.Element{
			{ID: "b1", Type: domain.ElementTypeButton, Name: "Go", X: 10, Y: 20, Width: 120, Height: 36},
		},
	}
	root.Children[0].SetAttr(domain.AttrNavTarget, "p2")
	return &domain.Document{
		ID:    "doc1",
		Name:  "Checkout",
		Pages: []*domain.Page{{ID: "p1", Name: "Home", Root: root}},
	}
}

// ── prototypes ─────────────────────────────────────────────

func TestPrototypeDocumentRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := storage.NewPrototypeStore(db)

	p := &domain.Prototype{ID: "proto1", Name: "Checkout", TeamID: "team1"}
	if err := store.CreatePrototype(p, sampleDocument()); err != nil {
		t.Fatalf("CreatePrototype: %v", err)
	}

	doc, err := store.LoadDocument("proto1")
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.Name != "Checkout" || len(doc.Pages) != 1 {
		t.Fatalf("document = %+v", doc)
	}
	btn := doc.Pages[0].Root.Children[0]
	if btn.Attr(domain.AttrNavTarget) != "p2" || btn.Width != 120 {
		t.Fatalf("element attrs lost in round trip: %+v", btn)
	}

	doc.Pages[0].Name = "Landing"
	if err := store.SaveDocument("proto1", doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	again, err := store.LoadDocument("proto1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Pages[0].Name != "Landing" {
		t.Error("save did not persist")
	}
}

func TestPrototypeListAndRename(t *testing.T) {
	db := openTestDB(t)
	store := storage.NewPrototypeStore(db)
	for _, id := range []string{"a", "b"} {
		p := &domain.Prototype{ID: id, Name: id}
		if err := store.CreatePrototype(p, sampleDocument()); err != nil {
			t.Fatal(err)
		}
	}
	list, err := store.ListPrototypes()
	if err != nil || len(list) != 2 {
		t.Fatalf("list = %v, %v", list, err)
	}
	if err := store.RenamePrototype("a", "Renamed"); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetPrototype("a")
	if err != nil || got.Name != "Renamed" {
		t.Fatalf("get after rename = %+v, %v", got, err)
	}
}

func TestDeletePrototypeCascades(t *testing.T) {
	db := openTestDB(t)
	store := storage.NewPrototypeStore(db)
	p := &domain.Prototype{ID: "proto1", Name: "X"}
	if err := store.CreatePrototype(p, sampleDocument()); err != nil {
		t.Fatal(err)
	}

	syms := storage.NewLocalSymbolStore(db, domain.ScopePrototype)
	if err := syms.CreateSymbol(&domain.Symbol{
		ID: "prototype-s1", Scope: domain.ScopePrototype, OwnerID: "proto1",
		Name: "Card", Fragment: &domain.Element{ID: "f", Type: domain.ElementTypeBox},
	}); err != nil {
		t.Fatal(err)
	}
	snaps := storage.NewDocumentSnapshots(storage.NewSnapshotStore(db))
	if err := snaps.WriteSnapshot("proto1", sampleDocument()); err != nil {
		t.Fatal(err)
	}

	if err := store.DeletePrototype("proto1"); err != nil {
		t.Fatalf("DeletePrototype: %v", err)
	}
	if _, err := store.GetPrototype("proto1"); err == nil {
		t.Error("prototype still present")
	}
	left, err := syms.ListSymbols("proto1")
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Error("prototype symbols survived the delete")
	}
	doc, err := snaps.ReadCurrent("proto1")
	if err != nil {
		t.Fatal(err)
	}
	if doc != nil {
		t.Error("snapshots survived the delete")
	}
}

// ── symbols ────────────────────────────────────────────────

func TestLocalSymbolStoreCRUD(t *testing.T) {
	db := openTestDB(t)
	store := storage.NewLocalSymbolStore(db, domain.ScopePrototype)

	first := &domain.Symbol{
		ID: "prototype-a", Scope: domain.ScopePrototype, OwnerID: "proto1",
		Name: "Card", Fragment: &domain.Element{ID: "f1", Type: domain.ElementTypeBox},
	}
	second := &domain.Symbol{
		ID: "prototype-b", Scope: domain.ScopePrototype, OwnerID: "proto1",
		Name: "Chip", Fragment: &domain.Element{ID: "f2", Type: domain.ElementTypeLabel},
	}
	for _, sym := range []*domain.Symbol{first, second} {
		if err := store.CreateSymbol(sym); err != nil {
			t.Fatalf("CreateSymbol: %v", err)
		}
	}

	list, err := store.ListSymbols("proto1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d symbols", len(list))
	}
	if list[0].ID != "prototype-a" {
		t.Errorf("creation order broken: %s first", list[0].ID)
	}
	if list[0].Fragment == nil || list[0].Fragment.Type != domain.ElementTypeBox {
		t.Errorf("fragment lost: %+v", list[0].Fragment)
	}

	first.Name = "Card v2"
	if err := store.UpdateSymbol(first); err != nil {
		t.Fatal(err)
	}
	list, _ = store.ListSymbols("proto1")
	if list[0].Name != "Card v2" {
		t.Error("update not persisted")
	}

	if err := store.DeleteSymbol("prototype-a"); err != nil {
		t.Fatal(err)
	}
	list, _ = store.ListSymbols("proto1")
	if len(list) != 1 || list[0].ID != "prototype-b" {
		t.Fatalf("after delete: %+v", list)
	}
}

func TestSymbolStoreScopesAreIsolated(t *testing.T) {
	db := openTestDB(t)
	protoScoped := storage.NewLocalSymbolStore(db, domain.ScopePrototype)
	teamScoped := storage.NewLocalSymbolStore(db, domain.ScopeTeam)

	if err := teamScoped.CreateSymbol(&domain.Symbol{
		ID: "team-x", Scope: domain.ScopeTeam, OwnerID: "team1",
		Name: "Shared", Fragment: &domain.Element{ID: "f", Type: domain.ElementTypeBox},
	}); err != nil {
		t.Fatal(err)
	}
	list, err := protoScoped.ListSymbols("team1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatal("prototype scope sees team symbols")
	}
}

// ── snapshots ──────────────────────────────────────────────

func TestSnapshotPointerFollowsPushes(t *testing.T) {
	db := openTestDB(t)
	store := storage.NewSnapshotStore(db)

	if _, err := store.Push("proto1", "s1", "", "first", `{"id":"doc1"}`); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, err := store.Push("proto1", "s2", "s1", "second", `{"id":"doc1","name":"v2"}`); err != nil {
		t.Fatal(err)
	}

	cur, err := store.Current("proto1")
	if err != nil {
		t.Fatal(err)
	}
	if cur == nil || cur.ID != "s2" {
		t.Fatalf("current = %+v, want s2", cur)
	}

	if err := store.GoTo("proto1", "s1"); err != nil {
		t.Fatal(err)
	}
	cur, _ = store.Current("proto1")
	if cur.ID != "s1" {
		t.Fatalf("current after GoTo = %s", cur.ID)
	}

	history, err := store.LoadHistory("proto1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history.Snapshots) != 2 || history.RootID != "s1" || history.CurrentID != "s1" {
		t.Fatalf("history = %+v", history)
	}
}

func TestSnapshotCurrentWithoutHistory(t *testing.T) {
	db := openTestDB(t)
	store := storage.NewSnapshotStore(db)
	cur, err := store.Current("never-saved")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur != nil {
		t.Fatalf("current = %+v, want nil", cur)
	}
}

func TestDocumentSnapshotsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	snaps := storage.NewDocumentSnapshots(storage.NewSnapshotStore(db))

	doc, err := snaps.ReadCurrent("proto1")
	if err != nil || doc != nil {
		t.Fatalf("empty history = %+v, %v", doc, err)
	}

	if err := snaps.WriteSnapshot("proto1", sampleDocument()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	doc, err = snaps.ReadCurrent("proto1")
	if err != nil {
		t.Fatal(err)
	}
	if doc == nil || doc.Name != "Checkout" {
		t.Fatalf("read back = %+v", doc)
	}

	// A second write chains under the first.
	doc.Name = "Checkout v2"
	if err := snaps.WriteSnapshot("proto1", doc); err != nil {
		t.Fatal(err)
	}
	history, err := storage.NewSnapshotStore(db).LoadHistory("proto1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history.Snapshots) != 2 {
		t.Fatalf("history length = %d", len(history.Snapshots))
	}
	if history.Snapshots[1].ParentID == nil || *history.Snapshots[1].ParentID != history.Snapshots[0].ID {
		t.Error("second snapshot not parented under the first")
	}
}
