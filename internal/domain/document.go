package domain

import "time"

// Page is one named screen inside a document, holding a tree of elements.
type Page struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	Root      *Element  `json:"root"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Document is the serialized project being edited. It round-trips exactly
// through persistence: Document and Symbol are the serialization contract.
type Document struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Pages   []*Page  `json:"pages"`
	Symbols []Symbol `json:"symbols,omitempty"`
}

// Page returns the page with the given ID, or nil.
func (d *Document) Page(id string) *Page {
	for _, p := range d.Pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// HasSymbol reports whether a symbol with the given ID is already present.
func (d *Document) HasSymbol(id string) bool {
	for _, s := range d.Symbols {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Prototype is the persisted owner record of a document.
type Prototype struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeamID    string    `json:"teamId"`
	OrgID     string    `json:"orgId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PrototypeStore persists prototypes and their document blobs.
type PrototypeStore interface {
	CreatePrototype(p *Prototype, doc *Document) error
	GetPrototype(id string) (*Prototype, error)
	ListPrototypes() ([]Prototype, error)
	LoadDocument(prototypeID string) (*Document, error)
	SaveDocument(prototypeID string, doc *Document) error
	RenamePrototype(id, name string) error
	DeletePrototype(id string) error
}
