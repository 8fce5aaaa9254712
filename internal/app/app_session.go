package app

import (
	"studio/internal/domain"
)

// ============================================================
// Editing session
// ============================================================

// OpenPrototype loads a prototype into the editing session.
func (a *App) OpenPrototype(id string) error {
	if err := a.controller.Open(a.ctx, id); err != nil {
		return err
	}
	if err := a.settings.SetLastOpenedPrototype(id); err != nil {
		a.log.Warn().Err(err).Msg("persist last opened prototype")
	}
	a.watcher.SetPrototype(id)
	return nil
}

// CloseSession tears the session down and returns to idle.
func (a *App) CloseSession() {
	a.controller.Close()
	a.watcher.SetPrototype("")
}

// SessionState returns the current session state for the frontend.
func (a *App) SessionState() domain.SessionState {
	return a.controller.Machine().State()
}

// SaveNow persists the open document immediately. A no-op when the session
// is clean or a save is already running.
func (a *App) SaveNow() error {
	return a.controller.Save(a.ctx)
}

// SwitchPage starts an asynchronous switch to another page.
func (a *App) SwitchPage(pageID string) error {
	return a.controller.SwitchPage(a.ctx, pageID)
}

// MirrorDocument records the document tree the frontend just edited so the
// next save and page switch see it. It does not echo a replace command back.
func (a *App) MirrorDocument(doc *domain.Document) {
	a.surf.MirrorDocument(doc)
}

// LastOpenedPrototype returns the prototype the user had open last.
func (a *App) LastOpenedPrototype() string {
	return a.settings.LastOpenedPrototype()
}
