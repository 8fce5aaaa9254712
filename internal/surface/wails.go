package surface

import (
	"context"
	"sync"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"studio/internal/domain"
)

// Wails is the production Surface over the webview runtime. Commands travel
// to the frontend as events; the frontend pushes document state back through
// bound methods, which the app layer mirrors here so the controller can read
// the current tree synchronously.
type Wails struct {
	ctx context.Context

	mu  sync.Mutex
	doc *domain.Document
}

// NewWails creates the runtime-backed surface. ctx must be the Wails
// application context received on startup.
func NewWails(ctx context.Context) *Wails {
	return &Wails{ctx: ctx}
}

func (w *Wails) Subscribe(event EventName, fn Handler) func() {
	return wailsRuntime.EventsOn(w.ctx, string(event), func(optionalData ...interface{}) {
		fn(optionalData...)
	})
}

func (w *Wails) Emit(_ context.Context, event EventName, data any) {
	wailsRuntime.EventsEmit(w.ctx, string(event), data)
}

func (w *Wails) ReadDocument() *domain.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doc
}

func (w *Wails) ReplaceDocument(ctx context.Context, doc *domain.Document) {
	w.mu.Lock()
	w.doc = doc
	w.mu.Unlock()
	w.Emit(ctx, EventReplaceDocument, doc)
}

// MirrorDocument records the tree the frontend just pushed without sending a
// replace command back. Called from the app layer's bound methods.
func (w *Wails) MirrorDocument(doc *domain.Document) {
	w.mu.Lock()
	w.doc = doc
	w.mu.Unlock()
}

func (w *Wails) SetAttribute(ctx context.Context, elementID, key, value string) {
	w.Emit(ctx, EventSetAttribute, map[string]string{
		"elementId": elementID,
		"key":       key,
		"value":     value,
	})
}

func (w *Wails) PruneWidgets(ctx context.Context, allowed []string) {
	w.Emit(ctx, EventPruneWidgets, map[string]any{"allowed": allowed})
}

func (w *Wails) InjectAsset(ctx context.Context, kind AssetKind, name, content string) {
	w.Emit(ctx, EventInjectAsset, map[string]string{
		"kind":    string(kind),
		"name":    name,
		"content": content,
	})
}

func (w *Wails) RefreshFrame(ctx context.Context) {
	w.Emit(ctx, EventRefreshFrame, nil)
}
