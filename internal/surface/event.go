// Package surface is the translation layer between the session controller and
// the embedded rendering surface (the webview canvas). The controller never
// touches runtime event strings directly: event names are typed here and every
// listener registration goes through one Binder so teardown is exhaustive.
package surface

// EventName is a typed rendering-surface event identifier.
type EventName string

// Events raised by the rendering surface.
const (
	EventSurfaceReady   EventName = "surface:ready"
	EventFrameLoaded    EventName = "surface:frame-loaded"
	EventContentChanged EventName = "surface:content-changed"
	EventPageSelected   EventName = "surface:page-selected"
	EventPageAdded      EventName = "surface:page-added"
	EventPageRemoved    EventName = "surface:page-removed"
)

// Events emitted toward the rendering surface and the session chrome.
const (
	EventSessionChanged  EventName = "session:state-changed"
	EventSessionError    EventName = "session:error"
	EventSaveNotice      EventName = "session:save-notice"
	EventReplaceDocument EventName = "surface:replace-document"
	EventSetAttribute    EventName = "surface:set-attribute"
	EventPruneWidgets    EventName = "surface:prune-widgets"
	EventInjectAsset     EventName = "surface:inject-asset"
	EventRefreshFrame    EventName = "surface:refresh"
	EventSymbolsChanged  EventName = "symbols:changed"
	EventAssetsReloaded  EventName = "assets:reloaded"
)

// Handler is a surface event callback. The payload slice mirrors the wire
// shape of runtime events (zero or more JSON-decoded values).
type Handler func(payload ...any)

// AssetKind distinguishes the supporting assets injected into the rendered frame.
type AssetKind string

const (
	AssetStylesheet AssetKind = "stylesheet"
	AssetScript     AssetKind = "script"
)
