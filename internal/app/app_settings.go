package app

import (
	"studio/internal/service"
)

// ============================================================
// Window settings
// ============================================================

func (a *App) LoadWindowSize() service.WindowSize {
	return a.settings.LoadWindowSize()
}

func (a *App) SaveWindowSize(width, height int) error {
	return a.settings.SaveWindowSize(width, height)
}
