package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studio/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Prototype Service — business logic for prototypes and pages
// ─────────────────────────────────────────────────────────────

// PrototypeService manages the prototype catalog and page structure. Document
// content editing happens through the session controller; this service covers
// everything outside an open session.
type PrototypeService struct {
	store   domain.PrototypeStore
	emitter EventEmitter
}

// NewPrototypeService creates a PrototypeService.
func NewPrototypeService(store domain.PrototypeStore, emitter EventEmitter) *PrototypeService {
	return &PrototypeService{store: store, emitter: emitter}
}

// ── Prototypes ─────────────────────────────────────────────

func (s *PrototypeService) ListPrototypes() ([]domain.Prototype, error) {
	return s.store.ListPrototypes()
}

func (s *PrototypeService) GetPrototype(id string) (*domain.Prototype, error) {
	return s.store.GetPrototype(id)
}

// CreatePrototype creates a prototype with a single empty page.
func (s *PrototypeService) CreatePrototype(ctx context.Context, name, teamID, orgID string) (*domain.Prototype, error) {
	now := time.Now()
	p := &domain.Prototype{
		ID:        uuid.New().String(),
		Name:      name,
		TeamID:    teamID,
		OrgID:     orgID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc := &domain.Document{
		ID:    uuid.New().String(),
		Name:  name,
		Pages: []*domain.Page{newPage("Page 1", 0)},
	}
	if err := s.store.CreatePrototype(p, doc); err != nil {
		return nil, fmt.Errorf("create prototype: %w", err)
	}
	s.emitter.Emit(ctx, "prototype:created", p)
	return p, nil
}

func (s *PrototypeService) RenamePrototype(ctx context.Context, id, name string) error {
	if err := s.store.RenamePrototype(id, name); err != nil {
		return fmt.Errorf("rename prototype: %w", err)
	}
	s.emitter.Emit(ctx, "prototype:renamed", map[string]string{"id": id, "name": name})
	return nil
}

func (s *PrototypeService) DeletePrototype(ctx context.Context, id string) error {
	if err := s.store.DeletePrototype(id); err != nil {
		return fmt.Errorf("delete prototype: %w", err)
	}
	s.emitter.Emit(ctx, "prototype:deleted", map[string]string{"id": id})
	return nil
}

// ── Pages ──────────────────────────────────────────────────

// AddPage appends a page to a prototype's document. Content for the new page
// is deferred: the page starts empty and receives its starter template when
// first opened in a session.
func (s *PrototypeService) AddPage(ctx context.Context, prototypeID, name string) (*domain.Page, error) {
	doc, err := s.store.LoadDocument(prototypeID)
	if err != nil {
		return nil, fmt.Errorf("add page: %w", err)
	}
	if name == "" {
		name = fmt.Sprintf("Page %d", len(doc.Pages)+1)
	}
	page := newPage(name, len(doc.Pages))
	doc.Pages = append(doc.Pages, page)
	if err := s.store.SaveDocument(prototypeID, doc); err != nil {
		return nil, fmt.Errorf("add page: %w", err)
	}
	s.emitter.Emit(ctx, "prototype:page-added", page)
	return page, nil
}

// RemovePage deletes a page. Removing the last page is refused: a document
// always has at least one page.
func (s *PrototypeService) RemovePage(ctx context.Context, prototypeID, pageID string) error {
	doc, err := s.store.LoadDocument(prototypeID)
	if err != nil {
		return fmt.Errorf("remove page: %w", err)
	}
	if len(doc.Pages) <= 1 {
		return fmt.Errorf("remove page: cannot remove the only page")
	}
	kept := doc.Pages[:0]
	found := false
	for _, p := range doc.Pages {
		if p.ID == pageID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("remove page: page %s not found", pageID)
	}
	doc.Pages = kept
	for i, p := range doc.Pages {
		p.Order = i
	}
	if err := s.store.SaveDocument(prototypeID, doc); err != nil {
		return fmt.Errorf("remove page: %w", err)
	}
	s.emitter.Emit(ctx, "prototype:page-removed", map[string]string{"id": pageID})
	return nil
}

// RenamePage renames a page in place.
func (s *PrototypeService) RenamePage(ctx context.Context, prototypeID, pageID, name string) error {
	doc, err := s.store.LoadDocument(prototypeID)
	if err != nil {
		return fmt.Errorf("rename page: %w", err)
	}
	page := doc.Page(pageID)
	if page == nil {
		return fmt.Errorf("rename page: page %s not found", pageID)
	}
	page.Name = name
	page.UpdatedAt = time.Now()
	if err := s.store.SaveDocument(prototypeID, doc); err != nil {
		return fmt.Errorf("rename page: %w", err)
	}
	s.emitter.Emit(ctx, "prototype:page-renamed", map[string]string{"id": pageID, "name": name})
	return nil
}

func newPage(name string, order int) *domain.Page {
	now := time.Now()
	return &domain.Page{
		ID:    uuid.New().String(),
		Name:  name,
		Order: order,
		Root: &domain.Element{
			ID:     uuid.New().String(),
			Type:   domain.ElementTypeScreen,
			Name:   "Screen",
			Width:  1280,
			Height: 800,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
