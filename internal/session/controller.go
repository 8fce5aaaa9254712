package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/doctree"
	"studio/internal/domain"
	"studio/internal/surface"
	"studio/internal/symbols"
	"studio/internal/visibility"
)

// SymbolSource supplies the shared-scope symbols injected at load time.
type SymbolSource interface {
	EffectiveSymbols(ctx context.Context, prototypeID string) ([]domain.Symbol, error)
}

// Asset is one supporting stylesheet or script for the rendered frame.
type Asset struct {
	Kind    surface.AssetKind
	Name    string
	Content string
}

// AssetProvider loads the external assets a page switch injects.
type AssetProvider interface {
	LoadAll(ctx context.Context) ([]Asset, error)
}

// SnapshotSink persists local document snapshots. It is the fallback document
// source on session start when no persistence store is configured, and the
// revision-history sink on every successful save.
type SnapshotSink interface {
	ReadCurrent(prototypeID string) (*domain.Document, error)
	WriteSnapshot(prototypeID string, doc *domain.Document) error
}

// TemplateProvider supplies the default fragment injected into a page that is
// newly created and still empty when first switched to.
type TemplateProvider interface {
	DefaultPageFragment() *domain.Element
}

// Deps are the controller's collaborators. Surface is required; everything
// else may be nil and degrades the matching behavior.
type Deps struct {
	Log            zerolog.Logger
	Surface        surface.Surface
	Store          domain.PrototypeStore
	Snapshots      SnapshotSink
	Symbols        SymbolSource
	Assets         AssetProvider
	Templates      TemplateProvider
	AllowedWidgets []string

	// FrameReadyTimeout bounds the wait for the rendering frame. The timeout
	// resolves the wait instead of failing it: a slow frame load degrades,
	// it does not abort the switch.
	FrameReadyTimeout time.Duration

	// AssetRetries bounds the external-asset load attempts per switch.
	AssetRetries int
}

// Controller drives one editing session: it owns the state machine, issues
// concurrency tokens for page switches, and is the only writer of the live
// in-memory document outside the surface mirror.
type Controller struct {
	log     zerolog.Logger
	machine *Machine
	tokens  *TokenManager
	surf    surface.Surface
	binder  *surface.Binder
	deps    Deps

	// switchMu serializes a finishing switch's completion with a superseding
	// switch's start, so the transitional state always has exactly one owner.
	switchMu sync.Mutex

	mu          sync.Mutex
	prototypeID string
	doc         *domain.Document
	frameCh     chan struct{}
	evaluator   *visibility.Evaluator
	dims        *visibility.ActiveDimensions
}

// NewController wires a controller. Call Start to attach surface listeners.
func NewController(deps Deps) *Controller {
	if deps.FrameReadyTimeout <= 0 {
		deps.FrameReadyTimeout = 5 * time.Second
	}
	if deps.AssetRetries <= 0 {
		deps.AssetRetries = 3
	}
	log := deps.Log.With().Str("component", "session-controller").Logger()
	return &Controller{
		log:     log,
		machine: NewMachine(deps.Log),
		tokens:  NewTokenManager(),
		surf:    deps.Surface,
		binder:  surface.NewBinder(deps.Surface),
		deps:    deps,
	}
}

// Machine exposes the state machine for state queries and notifications.
func (c *Controller) Machine() *Machine { return c.machine }

// Start registers all surface listeners through the binder.
func (c *Controller) Start(ctx context.Context) {
	c.binder.On(surface.EventSurfaceReady, func(...any) {
		c.surf.PruneWidgets(ctx, c.deps.AllowedWidgets)
	})
	c.binder.On(surface.EventFrameLoaded, func(...any) {
		c.onFrameLoaded()
	})
	c.binder.On(surface.EventContentChanged, func(...any) {
		c.onContentChanged(ctx)
	})
	c.binder.On(surface.EventPageSelected, func(payload ...any) {
		if pageID := payloadString(payload, "pageId"); pageID != "" {
			if err := c.SwitchPage(ctx, pageID); err != nil {
				c.log.Warn().Err(err).Str("page", pageID).Msg("page switch refused")
			}
		}
	})
	c.binder.On(surface.EventPageAdded, func(...any) {
		c.onContentChanged(ctx)
	})
	c.binder.On(surface.EventPageRemoved, func(...any) {
		c.onContentChanged(ctx)
	})
}

// Close tears the session down: every listener registered through the binder
// is unregistered, in-flight operations are cancelled, and the machine
// returns to idle.
func (c *Controller) Close() {
	c.binder.Close()
	c.tokens.CancelAll()
	c.machine.Reset()
	c.mu.Lock()
	c.doc = nil
	c.prototypeID = ""
	c.evaluator = nil
	c.mu.Unlock()
}

// ── Load ───────────────────────────────────────────────────

// Open loads a prototype into the session. The document comes from the
// persistence store, or from the latest local snapshot when no store is
// configured. Shared-scope symbols are merged in at load time; their absence
// degrades the session, it does not fail the load.
func (c *Controller) Open(ctx context.Context, prototypeID string) error {
	if c.machine.Status() != domain.StatusIdle {
		c.machine.Reset()
	}
	if !c.machine.LoadStart() {
		return fmt.Errorf("session busy: %s", c.machine.Status())
	}

	doc, err := c.loadDocument(prototypeID)
	if err != nil {
		c.machine.LoadFailed(err)
		return fmt.Errorf("load prototype %s: %w", prototypeID, err)
	}

	if c.deps.Symbols != nil {
		shared, err := c.deps.Symbols.EffectiveSymbols(ctx, prototypeID)
		if err != nil {
			c.log.Warn().Err(err).Msg("shared symbols unavailable, continuing without")
		} else {
			doc = symbols.MergeIntoDocument(doc, shared)
		}
	}

	c.mu.Lock()
	c.prototypeID = prototypeID
	c.doc = doc
	c.mu.Unlock()

	c.surf.ReplaceDocument(ctx, doc)
	c.surf.PruneWidgets(ctx, c.deps.AllowedWidgets)
	c.machine.LoadSucceeded()
	if len(doc.Pages) > 0 {
		c.machine.SetActivePage(doc.Pages[0].ID)
		c.attachInteractionHandlers(ctx, doc.Pages[0].ID)
	}
	return nil
}

func (c *Controller) loadDocument(prototypeID string) (*domain.Document, error) {
	if c.deps.Store != nil {
		return c.deps.Store.LoadDocument(prototypeID)
	}
	if c.deps.Snapshots != nil {
		doc, err := c.deps.Snapshots.ReadCurrent(prototypeID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, fmt.Errorf("no snapshot for prototype %s", prototypeID)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("no persistence configured")
}

// ── Save ───────────────────────────────────────────────────

// Save persists the current document. Only legal from ready with unsaved
// changes; any other call is a no-op so overlapping autosave ticks and manual
// saves collapse to exactly one persistence call. The managed-scope symbols
// merged at load time are extracted before writing so they are never forked
// into the prototype's own storage.
func (c *Controller) Save(ctx context.Context) error {
	if !c.machine.SaveStart() {
		return nil
	}

	doc := c.currentDocument()
	if doc == nil {
		err := fmt.Errorf("no document loaded")
		c.machine.SaveFailed(err)
		return err
	}
	persistable := symbols.ExtractPersistable(doc)

	c.mu.Lock()
	prototypeID := c.prototypeID
	c.mu.Unlock()

	if err := c.persist(prototypeID, persistable); err != nil {
		c.machine.SaveFailed(err)
		c.surf.Emit(ctx, surface.EventSaveNotice, map[string]string{"error": err.Error()})
		return fmt.Errorf("save prototype %s: %w", prototypeID, err)
	}

	c.machine.SaveSucceeded(time.Now())
	if c.deps.Snapshots != nil {
		if err := c.deps.Snapshots.WriteSnapshot(prototypeID, persistable); err != nil {
			c.log.Warn().Err(err).Msg("snapshot write failed")
		}
	}
	return nil
}

func (c *Controller) persist(prototypeID string, doc *domain.Document) error {
	if c.deps.Store != nil {
		return c.deps.Store.SaveDocument(prototypeID, doc)
	}
	if c.deps.Snapshots != nil {
		return c.deps.Snapshots.WriteSnapshot(prototypeID, doc)
	}
	return fmt.Errorf("no persistence configured")
}

// currentDocument prefers the surface mirror, which carries the latest edits.
func (c *Controller) currentDocument() *domain.Document {
	if doc := c.surf.ReadDocument(); doc != nil {
		c.mu.Lock()
		c.doc = doc
		c.mu.Unlock()
		return doc
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// ── Page switching ─────────────────────────────────────────

// SwitchPage begins the asynchronous page-switch sequence. A switch that
// arrives while another is in flight supersedes it: the old token is
// cancelled and the superseded switch's completion is forced before the new
// start is recorded, so the transitional state always has exactly one owner.
func (c *Controller) SwitchPage(ctx context.Context, pageID string) error {
	status := c.machine.Status()
	if status != domain.StatusReady && status != domain.StatusPageSwitching {
		return fmt.Errorf("page switch not allowed while %s", status)
	}
	doc := c.currentDocument()
	if doc == nil || doc.Page(pageID) == nil {
		return fmt.Errorf("unknown page %s", pageID)
	}

	c.switchMu.Lock()
	tok := c.tokens.Begin(OpPageSwitch)
	c.machine.PageSwitchComplete() // force the superseded switch closed; no-op from ready
	c.machine.PageSwitchStart(pageID)
	c.switchMu.Unlock()

	go c.runPageSwitch(ctx, tok, pageID)
	return nil
}

// runPageSwitch executes the ordered switch sequence. Every step observes
// cancellation before running; a cancelled switch has no further observable
// effect and never reports failure — supersession is control flow, not an
// error.
func (c *Controller) runPageSwitch(ctx context.Context, tok *Token, pageID string) {
	c.waitFrameReady(tok)
	if tok.Cancelled() {
		return
	}

	assets, ok := c.loadAssets(ctx, tok)
	if tok.Cancelled() {
		return
	}
	if ok {
		for _, a := range assets {
			c.surf.InjectAsset(ctx, a.Kind, a.Name, a.Content)
		}
	}

	c.injectDeferredTemplate(ctx, tok, pageID)
	if tok.Cancelled() {
		return
	}

	c.surf.RefreshFrame(ctx)

	c.attachInteractionHandlers(ctx, pageID)
	if tok.Cancelled() {
		return
	}

	c.resyncNavLinks(ctx)

	// The token completion and the machine transition must not interleave
	// with a superseding switch's start, or the stale goroutine would drop
	// the new switch back to ready mid-flight.
	c.switchMu.Lock()
	defer c.switchMu.Unlock()
	if !c.tokens.Complete(tok) {
		return
	}
	c.machine.PageSwitchComplete()
}

// waitFrameReady blocks until the rendering frame reports loaded, or until
// the timeout resolves the wait. A slow-but-eventually-successful frame load
// must not hard-fail the sequence.
func (c *Controller) waitFrameReady(tok *Token) {
	c.mu.Lock()
	ch := make(chan struct{})
	c.frameCh = ch
	c.mu.Unlock()

	select {
	case <-ch:
	case <-time.After(c.deps.FrameReadyTimeout):
		c.log.Debug().Uint64("token", tok.Generation()).Msg("frame ready wait timed out, continuing")
	}
}

func (c *Controller) onFrameLoaded() {
	c.mu.Lock()
	if c.frameCh != nil {
		close(c.frameCh)
		c.frameCh = nil
	}
	c.mu.Unlock()
}

// loadAssets fetches external assets with bounded backoff. A genuine load
// failure is logged and skips the resource-dependent steps; it does not
// abort the page switch.
func (c *Controller) loadAssets(ctx context.Context, tok *Token) ([]Asset, bool) {
	if c.deps.Assets == nil {
		return nil, false
	}
	var lastErr error
	for attempt := 1; attempt <= c.deps.AssetRetries; attempt++ {
		if tok.Cancelled() {
			return nil, false
		}
		assets, err := c.deps.Assets.LoadAll(ctx)
		if err == nil {
			return assets, true
		}
		lastErr = err
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	c.log.Warn().Err(lastErr).Msg("external assets failed to load, continuing degraded")
	return nil, false
}

// injectDeferredTemplate fills a newly created, still-empty page with the
// default template fragment.
func (c *Controller) injectDeferredTemplate(ctx context.Context, tok *Token, pageID string) {
	if c.deps.Templates == nil || tok.Cancelled() {
		return
	}
	c.mu.Lock()
	doc := c.doc
	c.mu.Unlock()
	if doc == nil {
		return
	}
	page := doc.Page(pageID)
	if page == nil || page.Root == nil || len(page.Root.Children) > 0 {
		return
	}
	fragment := c.deps.Templates.DefaultPageFragment()
	if fragment == nil {
		return
	}
	fragment = doctree.Clone(fragment)
	doctree.ReassignIDs(fragment)
	page.Root.Children = append(page.Root.Children, fragment)
	c.surf.ReplaceDocument(ctx, doc)
	c.machine.ContentChanged()
}

// attachInteractionHandlers rebuilds the visibility evaluator for the active
// page and applies the initial target states.
func (c *Controller) attachInteractionHandlers(ctx context.Context, pageID string) {
	c.mu.Lock()
	doc := c.doc
	c.mu.Unlock()
	if doc == nil {
		return
	}
	page := doc.Page(pageID)
	if page == nil {
		return
	}
	ev := visibility.NewEvaluator(page.Root)
	c.mu.Lock()
	c.evaluator = ev
	c.mu.Unlock()

	c.applyVisibility(ctx, ev.InitialStates())
	c.applyVisibility(ctx, ev.Evaluate())
}

// SetTriggerChecked records a trigger control's new state and pushes the
// resulting target visibility to the surface.
func (c *Controller) SetTriggerChecked(ctx context.Context, triggerID string, checked bool) {
	c.mu.Lock()
	ev := c.evaluator
	c.mu.Unlock()
	if ev == nil {
		return
	}
	c.applyVisibility(ctx, ev.SetChecked(triggerID, checked))
}

func (c *Controller) applyVisibility(ctx context.Context, visible map[string]bool) {
	for id, v := range visible {
		surface.SetElementVisible(ctx, c.surf, id, v)
	}
}

// ApplyDimensionVisibility re-evaluates the state/user dimension tags of
// every element on the active page. Dimension visibility composes with the
// trigger-rule visibility: an element is shown only when both pass.
func (c *Controller) ApplyDimensionVisibility(ctx context.Context, dims *visibility.ActiveDimensions) {
	c.mu.Lock()
	doc := c.doc
	ev := c.evaluator
	c.dims = dims
	c.mu.Unlock()
	if doc == nil || dims == nil {
		return
	}
	page := doc.Page(c.machine.State().ActivePageID)
	if page == nil {
		return
	}

	ruleVisible := map[string]bool{}
	if ev != nil {
		ruleVisible = ev.Evaluate()
	}
	doctree.Walk(page.Root, func(e *domain.Element) bool {
		v := dims.Visible(e)
		if rv, ok := ruleVisible[e.ID]; ok {
			v = v && rv
		}
		surface.SetElementVisible(ctx, c.surf, e.ID, v)
		return true
	})
}

// resyncNavLinks clears navigation targets that point at pages that no
// longer exist.
func (c *Controller) resyncNavLinks(ctx context.Context) {
	c.mu.Lock()
	doc := c.doc
	c.mu.Unlock()
	if doc == nil {
		return
	}
	pages := make(map[string]struct{}, len(doc.Pages))
	for _, p := range doc.Pages {
		pages[p.ID] = struct{}{}
	}
	for _, p := range doc.Pages {
		doctree.Walk(p.Root, func(e *domain.Element) bool {
			target := e.Attr(domain.AttrNavTarget)
			if target == "" {
				return true
			}
			if _, ok := pages[target]; !ok {
				e.SetAttr(domain.AttrNavTarget, "")
				c.surf.SetAttribute(ctx, e.ID, domain.AttrNavTarget, "")
			}
			return true
		})
	}
}

// onContentChanged records an edit from the surface. The edit may have
// touched trigger rules or dimension tags, so the active page's evaluator is
// rebuilt from the new tree and visibility is re-applied.
func (c *Controller) onContentChanged(ctx context.Context) {
	if doc := c.surf.ReadDocument(); doc != nil {
		c.mu.Lock()
		c.doc = doc
		c.mu.Unlock()
	}
	if !c.machine.ContentChanged() {
		return
	}
	c.attachInteractionHandlers(ctx, c.machine.State().ActivePageID)
	c.mu.Lock()
	dims := c.dims
	c.mu.Unlock()
	if dims != nil {
		c.ApplyDimensionVisibility(ctx, dims)
	}
}

// payloadString extracts a string field from a surface event payload, which
// arrives either as a bare string or as a JSON object.
func payloadString(payload []any, key string) string {
	if len(payload) == 0 {
		return ""
	}
	switch v := payload[0].(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v[key].(string); ok {
			return s
		}
	}
	return ""
}
