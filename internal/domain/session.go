package domain

import "time"

// SessionStatus is the lifecycle phase of an editing session.
type SessionStatus string

const (
	StatusIdle          SessionStatus = "idle"
	StatusLoading       SessionStatus = "loading"
	StatusReady         SessionStatus = "ready"
	StatusSaving        SessionStatus = "saving"
	StatusPageSwitching SessionStatus = "page_switching"
	StatusError         SessionStatus = "error"
)

// SessionState is the single source of truth for the editing-session
// lifecycle. Returned to the frontend so it can render the session chrome.
type SessionState struct {
	Status         SessionStatus `json:"status"`
	PreviousStatus SessionStatus `json:"previousStatus"`
	Dirty          bool          `json:"dirty"`
	LastSavedAt    *time.Time    `json:"lastSavedAt,omitempty"`
	Error          string        `json:"error,omitempty"`
	ActivePageID   string        `json:"activePageId,omitempty"`
}
