package surface

import (
	"context"

	"studio/internal/domain"
)

// Surface is the contract the session controller depends on. The production
// implementation speaks to the webview through runtime events; tests
// substitute the in-memory Mock.
type Surface interface {
	// Subscribe registers a listener and returns its unregister function.
	// Callers should not use this directly — register through a Binder so
	// every listener is deterministically removed on teardown.
	Subscribe(event EventName, fn Handler) (cancel func())

	// Emit sends an event toward the surface and session chrome.
	Emit(ctx context.Context, event EventName, data any)

	// ReadDocument returns the surface's current document tree.
	ReadDocument() *domain.Document

	// ReplaceDocument swaps the surface's document tree wholesale.
	ReplaceDocument(ctx context.Context, doc *domain.Document)

	// SetAttribute writes an attribute on a rendered element.
	SetAttribute(ctx context.Context, elementID, key, value string)

	// PruneWidgets removes any default building blocks whose type is not in
	// the allow-list.
	PruneWidgets(ctx context.Context, allowed []string)

	// InjectAsset injects a supporting stylesheet or script into the
	// rendered frame.
	InjectAsset(ctx context.Context, kind AssetKind, name, content string)

	// RefreshFrame forces a visual refresh of the rendered frame.
	RefreshFrame(ctx context.Context)
}

// SetElementVisible toggles the hidden attribute the renderer honors.
func SetElementVisible(ctx context.Context, s Surface, elementID string, visible bool) {
	if visible {
		s.SetAttribute(ctx, elementID, domain.AttrHidden, "false")
	} else {
		s.SetAttribute(ctx, elementID, domain.AttrHidden, "true")
	}
}
