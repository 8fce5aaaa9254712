package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// sessionWatcher polls the database for changes to the open prototype,
// detecting external modifications (e.g. from the standalone MCP process)
// and emitting Wails events so the frontend auto-refreshes.
type sessionWatcher struct {
	ctx context.Context
	app *App
	mu  sync.Mutex
	// Open prototype tracking
	prototypeID string
	lastDoc     string // prototype updated_at fingerprint
	lastSymbols string // symbols fingerprint (count + max updated_at)
	// Prototype list tracking (picker refresh)
	lastProtoList string
	stopCh        chan struct{}
}

func newSessionWatcher(ctx context.Context, app *App) *sessionWatcher {
	return &sessionWatcher{ctx: ctx, app: app}
}

// SetPrototype updates the watched prototype ID. Called when a session opens
// or closes.
func (w *sessionWatcher) SetPrototype(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prototypeID = id
	// Reset tracked state when the open prototype changes
	w.lastDoc = ""
	w.lastSymbols = ""
}

// PrototypeID returns the prototype currently being watched.
func (w *sessionWatcher) PrototypeID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prototypeID
}

// Start begins the polling loop. Should be called once on app startup.
func (w *sessionWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop.
func (w *sessionWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
	}
}

func (w *sessionWatcher) pollLoop() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *sessionWatcher) check() {
	w.mu.Lock()
	prototypeID := w.prototypeID
	w.mu.Unlock()

	db := w.app.db.Conn()

	// ── Check prototype list changes (picker) ───────────
	var protoListFingerprint string
	var protoCount int
	var protosMaxUpdated string
	err := db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(updated_at), '') FROM prototypes`,
	).Scan(&protoCount, &protosMaxUpdated)
	if err == nil {
		protoListFingerprint = fmt.Sprintf("%d:%s", protoCount, protosMaxUpdated)
	}

	var docFingerprint, symbolFingerprint string
	if prototypeID != "" {
		// ── Check open document updated_at ──────────────
		var docUpdated string
		if db.QueryRow(`SELECT COALESCE(updated_at, '') FROM prototypes WHERE id = ?`, prototypeID).Scan(&docUpdated) == nil {
			docFingerprint = docUpdated
		}

		// ── Check symbols MAX(updated_at) and count ─────
		var symbolCount int
		var symbolUpdated string
		if db.QueryRow(
			`SELECT COUNT(*), COALESCE(MAX(updated_at), '') FROM symbols WHERE owner_id = ? OR owner_id = ''`, prototypeID,
		).Scan(&symbolCount, &symbolUpdated) == nil {
			symbolFingerprint = fmt.Sprintf("%d:%s", symbolCount, symbolUpdated)
		}
	}

	// ── Compare fingerprints ────────────────────────────
	w.mu.Lock()
	docChanged := docFingerprint != "" && w.lastDoc != "" && w.lastDoc != docFingerprint
	symbolsChanged := symbolFingerprint != "" && w.lastSymbols != "" && w.lastSymbols != symbolFingerprint
	protosChanged := protoListFingerprint != "" && w.lastProtoList != "" && w.lastProtoList != protoListFingerprint
	if docFingerprint != "" {
		w.lastDoc = docFingerprint
	}
	if symbolFingerprint != "" {
		w.lastSymbols = symbolFingerprint
	}
	if protoListFingerprint != "" {
		w.lastProtoList = protoListFingerprint
	}
	w.mu.Unlock()

	// ── Emit events ────────────────────────────────────
	if docChanged {
		wailsRuntime.EventsEmit(w.ctx, "external:document-changed", map[string]string{"prototypeId": prototypeID})
	}
	if symbolsChanged {
		wailsRuntime.EventsEmit(w.ctx, "external:symbols-changed", map[string]string{"prototypeId": prototypeID})
	}
	if protosChanged {
		wailsRuntime.EventsEmit(w.ctx, "external:prototypes-changed", nil)
	}
}
