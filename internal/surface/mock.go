package surface

import (
	"context"
	"sync"

	"studio/internal/domain"
)

// Mock is a test-friendly Surface that records commands and lets tests fire
// surface events by hand.
type Mock struct {
	mu        sync.Mutex
	handlers  map[EventName][]*mockHandler
	doc       *domain.Document
	Emitted   []MockEmission
	Attrs     map[string]map[string]string // elementID → key → value
	Pruned    [][]string
	Assets    []MockAsset
	Refreshes int
}

type mockHandler struct {
	fn     Handler
	active bool
}

// MockEmission holds one recorded Emit call.
type MockEmission struct {
	Event EventName
	Data  any
}

// MockAsset holds one recorded InjectAsset call.
type MockAsset struct {
	Kind    AssetKind
	Name    string
	Content string
}

// NewMock creates an empty mock surface.
func NewMock() *Mock {
	return &Mock{
		handlers: make(map[EventName][]*mockHandler),
		Attrs:    make(map[string]map[string]string),
	}
}

func (m *Mock) Subscribe(event EventName, fn Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := &mockHandler{fn: fn, active: true}
	m.handlers[event] = append(m.handlers[event], h)
	return func() {
		m.mu.Lock()
		h.active = false
		m.mu.Unlock()
	}
}

// Fire delivers an event to every active listener, as the real surface would.
func (m *Mock) Fire(event EventName, payload ...any) {
	m.mu.Lock()
	hs := make([]*mockHandler, 0, len(m.handlers[event]))
	for _, h := range m.handlers[event] {
		if h.active {
			hs = append(hs, h)
		}
	}
	m.mu.Unlock()
	for _, h := range hs {
		h.fn(payload...)
	}
}

// ActiveListeners reports how many live listeners exist for an event.
func (m *Mock) ActiveListeners(event EventName) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, h := range m.handlers[event] {
		if h.active {
			n++
		}
	}
	return n
}

func (m *Mock) Emit(_ context.Context, event EventName, data any) {
	m.mu.Lock()
	m.Emitted = append(m.Emitted, MockEmission{Event: event, Data: data})
	m.mu.Unlock()
}

func (m *Mock) ReadDocument() *domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc
}

func (m *Mock) ReplaceDocument(_ context.Context, doc *domain.Document) {
	m.mu.Lock()
	m.doc = doc
	m.mu.Unlock()
}

// SetDocument seeds the mock's document without recording a replace command.
func (m *Mock) SetDocument(doc *domain.Document) {
	m.mu.Lock()
	m.doc = doc
	m.mu.Unlock()
}

func (m *Mock) SetAttribute(_ context.Context, elementID, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Attrs[elementID] == nil {
		m.Attrs[elementID] = make(map[string]string)
	}
	m.Attrs[elementID][key] = value
}

func (m *Mock) PruneWidgets(_ context.Context, allowed []string) {
	m.mu.Lock()
	m.Pruned = append(m.Pruned, allowed)
	m.mu.Unlock()
}

func (m *Mock) InjectAsset(_ context.Context, kind AssetKind, name, content string) {
	m.mu.Lock()
	m.Assets = append(m.Assets, MockAsset{Kind: kind, Name: name, Content: content})
	m.mu.Unlock()
}

func (m *Mock) RefreshFrame(_ context.Context) {
	m.mu.Lock()
	m.Refreshes++
	m.mu.Unlock()
}
