package app

import (
	"fmt"

	"studio/internal/components"
	"studio/internal/domain"
	"studio/internal/storage"
)

// ============================================================
// Prototypes and pages
// ============================================================

func (a *App) ListPrototypes() ([]domain.Prototype, error) {
	return a.prototypes.ListPrototypes()
}

func (a *App) GetPrototype(id string) (*domain.Prototype, error) {
	return a.prototypes.GetPrototype(id)
}

func (a *App) CreatePrototype(name string) (*domain.Prototype, error) {
	return a.prototypes.CreatePrototype(a.ctx, name, a.cfg.Team.ID, a.cfg.Org.ID)
}

func (a *App) RenamePrototype(id, name string) error {
	return a.prototypes.RenamePrototype(a.ctx, id, name)
}

func (a *App) DeletePrototype(id string) error {
	state := a.controller.Machine().State()
	if state.Status != domain.StatusIdle && a.watcher.PrototypeID() == id {
		return fmt.Errorf("prototype %s is open; close the session first", id)
	}
	return a.prototypes.DeletePrototype(a.ctx, id)
}

func (a *App) AddPage(prototypeID, name string) (*domain.Page, error) {
	return a.prototypes.AddPage(a.ctx, prototypeID, name)
}

func (a *App) RemovePage(prototypeID, pageID string) error {
	return a.prototypes.RemovePage(a.ctx, prototypeID, pageID)
}

func (a *App) RenamePage(prototypeID, pageID, name string) error {
	return a.prototypes.RenamePage(a.ctx, prototypeID, pageID, name)
}

// ============================================================
// Component palette
// ============================================================

// ComponentInfo is the serializable palette entry for one registered
// component type.
type ComponentInfo struct {
	Type          string  `json:"type"`
	Label         string  `json:"label"`
	DefaultWidth  float64 `json:"defaultWidth"`
	DefaultHeight float64 `json:"defaultHeight"`
}

// ListComponents returns the palette entries in registration order.
func (a *App) ListComponents() []ComponentInfo {
	var out []ComponentInfo
	a.registry.ForEach(func(def components.Definition) {
		out = append(out, ComponentInfo{
			Type:          string(def.Type),
			Label:         def.Label,
			DefaultWidth:  def.DefaultWidth,
			DefaultHeight: def.DefaultHeight,
		})
	})
	return out
}

// NewElement instantiates a fresh element of a registered component type.
func (a *App) NewElement(componentType string) (*domain.Element, error) {
	return a.registry.NewElement(domain.ElementType(componentType))
}

// ============================================================
// Revision history
// ============================================================

// LoadRevisionHistory returns the snapshot tree of a prototype.
func (a *App) LoadRevisionHistory(prototypeID string) (*storage.SnapshotHistory, error) {
	return a.snapshots.LoadHistory(prototypeID)
}

// RestoreRevision moves the current pointer to a snapshot, writes the
// restored document back to the prototype store, and reloads the session
// when that prototype is open.
func (a *App) RestoreRevision(prototypeID, snapshotID string) error {
	if err := a.snapshots.GoTo(prototypeID, snapshotID); err != nil {
		return fmt.Errorf("restore revision: %w", err)
	}

	doc, err := storage.NewDocumentSnapshots(a.snapshots).ReadCurrent(prototypeID)
	if err != nil {
		return fmt.Errorf("read restored revision: %w", err)
	}
	if doc != nil {
		if err := a.protos.SaveDocument(prototypeID, doc); err != nil {
			return fmt.Errorf("apply restored revision: %w", err)
		}
	}

	state := a.controller.Machine().State()
	if state.Status != domain.StatusIdle && a.watcher.PrototypeID() == prototypeID {
		return a.controller.Open(a.ctx, prototypeID)
	}
	return nil
}
