package service

import (
	"database/sql"
	"fmt"

	"studio/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// App Settings Persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the main window size and the last opened prototype
// between sessions. Stored in SQLite as key-value rows in app_settings,
// created via the storage layer migration.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SettingsService persists per-install UI settings.
type SettingsService struct {
	db *storage.DB
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(db *storage.DB) *SettingsService {
	return &SettingsService{db: db}
}

const (
	settingWindowWidth   = "window_width"
	settingWindowHeight  = "window_height"
	settingLastPrototype = "last_prototype"
	defaultWindowWidth   = 1440
	defaultWindowHeight  = 900
	minimumWindowWidth   = 800
	minimumWindowHeight  = 600
)

// LoadWindowSize returns the saved window dimensions, or sensible defaults.
func (s *SettingsService) LoadWindowSize() WindowSize {
	if s.db == nil {
		return WindowSize{Width: defaultWindowWidth, Height: defaultWindowHeight}
	}
	conn := s.db.Conn()

	w := defaultWindowWidth
	h := defaultWindowHeight
	row := conn.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, settingWindowWidth)
	row.Scan(&w)
	row = conn.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, settingWindowHeight)
	row.Scan(&h)

	if w < minimumWindowWidth {
		w = defaultWindowWidth
	}
	if h < minimumWindowHeight {
		h = defaultWindowHeight
	}
	return WindowSize{Width: w, Height: h}
}

// SaveWindowSize persists the current window dimensions.
func (s *SettingsService) SaveWindowSize(width, height int) error {
	if s.db == nil {
		return fmt.Errorf("settings: no db")
	}
	conn := s.db.Conn()
	if err := upsertSetting(conn, settingWindowWidth, width); err != nil {
		return err
	}
	return upsertSetting(conn, settingWindowHeight, height)
}

// LastOpenedPrototype returns the prototype opened in the previous session,
// or empty when there is none.
func (s *SettingsService) LastOpenedPrototype() string {
	if s.db == nil {
		return ""
	}
	var id string
	row := s.db.Conn().QueryRow(`SELECT value FROM app_settings WHERE key = ?`, settingLastPrototype)
	row.Scan(&id)
	return id
}

// SetLastOpenedPrototype records the prototype to reopen next launch.
func (s *SettingsService) SetLastOpenedPrototype(id string) error {
	if s.db == nil {
		return fmt.Errorf("settings: no db")
	}
	return upsertSetting(s.db.Conn(), settingLastPrototype, id)
}

func upsertSetting(conn *sql.DB, key string, value any) error {
	_, err := conn.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}
