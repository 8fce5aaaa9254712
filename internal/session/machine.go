// Package session is the editing-session controller: the state machine that
// owns the session lifecycle, the token manager that arbitrates overlapping
// asynchronous operations, and the controller that drives loads, saves, and
// page switches against the rendering surface.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
)

// Machine is the authoritative model of what the editing session is doing.
// All transitions are guarded; illegal calls are recorded no-ops rather than
// errors, because the callers (user input, timers, surface events) are
// scheduled independently and cannot synchronously know the current state.
type Machine struct {
	mu    sync.Mutex
	state domain.SessionState
	log   zerolog.Logger

	// notify is the latest state-change callback. Asynchronous continuations
	// read through this cell instead of closing over a snapshot, so a
	// reconfigured callback is always the one that runs.
	notify func(domain.SessionState)
}

// NewMachine creates a machine in the idle state.
func NewMachine(log zerolog.Logger) *Machine {
	return &Machine{
		state: domain.SessionState{Status: domain.StatusIdle},
		log:   log.With().Str("component", "session-machine").Logger(),
	}
}

// SetNotify replaces the state-change callback. Pass nil to silence.
func (m *Machine) SetNotify(fn func(domain.SessionState)) {
	m.mu.Lock()
	m.notify = fn
	m.mu.Unlock()
}

// State returns a snapshot of the current session state.
func (m *Machine) State() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns the current status only.
func (m *Machine) Status() domain.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status
}

// transitionLocked moves to a new status, tracking previousStatus.
func (m *Machine) transitionLocked(to domain.SessionStatus) {
	m.state.PreviousStatus = m.state.Status
	m.state.Status = to
}

// rejectLocked records an illegal transition for observability.
func (m *Machine) rejectLocked(event string) {
	m.log.Debug().
		Str("event", event).
		Str("status", string(m.state.Status)).
		Msg("transition rejected")
}

func (m *Machine) notifyAfter(fn func() bool) bool {
	m.mu.Lock()
	ok := fn()
	state := m.state
	notify := m.notify
	m.mu.Unlock()
	if ok && notify != nil {
		notify(state)
	}
	return ok
}

// LoadStart begins loading a prototype. Legal from idle only.
func (m *Machine) LoadStart() bool {
	return m.notifyAfter(func() bool {
		if m.state.Status != domain.StatusIdle {
			m.rejectLocked("loadPrototype")
			return false
		}
		m.transitionLocked(domain.StatusLoading)
		m.state.Error = ""
		return true
	})
}

// LoadSucceeded completes a load. Legal from loading only.
func (m *Machine) LoadSucceeded() bool {
	return m.notifyAfter(func() bool {
		if m.state.Status != domain.StatusLoading {
			m.rejectLocked("prototypeLoaded")
			return false
		}
		m.transitionLocked(domain.StatusReady)
		m.state.Dirty = false
		m.state.Error = ""
		return true
	})
}

// LoadFailed moves the session to error. This is the only path into the
// error status: load failures leave no document to edit, so the session
// blocks until reset.
func (m *Machine) LoadFailed(err error) bool {
	return m.notifyAfter(func() bool {
		if m.state.Status != domain.StatusLoading {
			m.rejectLocked("prototypeLoadFailed")
			return false
		}
		m.transitionLocked(domain.StatusError)
		if err != nil {
			m.state.Error = err.Error()
		}
		return true
	})
}

// ContentChanged records an unsaved edit. Edits made during a page switch are
// still recorded so the dirty flag survives the transition, but no save may
// start until the session is back in ready.
func (m *Machine) ContentChanged() bool {
	return m.notifyAfter(func() bool {
		switch m.state.Status {
		case domain.StatusReady, domain.StatusPageSwitching:
			m.state.Dirty = true
			return true
		default:
			// Silently rejected: the surface may flush edits late.
			return false
		}
	})
}

// SaveStart begins a save. Legal only from ready with unsaved changes; a call
// while already saving or mid page-switch is a no-op so the autosave timer
// never has to know the exact state it fires in. The dirty flag stays true on
// rejection, so a later tick retries.
func (m *Machine) SaveStart() bool {
	return m.notifyAfter(func() bool {
		if m.state.Status != domain.StatusReady || !m.state.Dirty {
			m.rejectLocked("saveStart")
			return false
		}
		m.transitionLocked(domain.StatusSaving)
		return true
	})
}

// SaveSucceeded completes a save: dirty cleared, lastSavedAt updated.
func (m *Machine) SaveSucceeded(at time.Time) bool {
	return m.notifyAfter(func() bool {
		if m.state.Status != domain.StatusSaving {
			m.rejectLocked("saveSuccess")
			return false
		}
		m.transitionLocked(domain.StatusReady)
		m.state.Dirty = false
		m.state.LastSavedAt = &at
		m.state.Error = ""
		return true
	})
}

// SaveFailed returns the session to ready with the dirty flag intact so a
// retry can occur. Save failures are transient, not blocking.
func (m *Machine) SaveFailed(err error) bool {
	return m.notifyAfter(func() bool {
		if m.state.Status != domain.StatusSaving {
			m.rejectLocked("saveFailed")
			return false
		}
		m.transitionLocked(domain.StatusReady)
		if err != nil {
			m.state.Error = err.Error()
		}
		return true
	})
}

// PageSwitchStart begins a page switch. Legal from ready, and from
// page_switching to support a newer switch superseding one in flight — the
// superseded switch's completion must be forced by the caller before the new
// start is recorded, so the transitional state always has exactly one owner.
// Mutually exclusive with saving.
func (m *Machine) PageSwitchStart(pageID string) bool {
	return m.notifyAfter(func() bool {
		switch m.state.Status {
		case domain.StatusReady, domain.StatusPageSwitching:
			m.transitionLocked(domain.StatusPageSwitching)
			m.state.ActivePageID = pageID
			return true
		default:
			m.rejectLocked("pageSwitchStart")
			return false
		}
	})
}

// PageSwitchComplete returns the session to ready. Calling it when already
// ready is tolerated (idempotent) to handle supersession ordering.
func (m *Machine) PageSwitchComplete() bool {
	return m.notifyAfter(func() bool {
		switch m.state.Status {
		case domain.StatusPageSwitching:
			m.transitionLocked(domain.StatusReady)
			return true
		case domain.StatusReady:
			return false // idempotent no-op, not an error
		default:
			m.rejectLocked("pageSwitchComplete")
			return false
		}
	})
}

// SetActivePage records the active page outside of a page switch, which
// happens exactly once: when a freshly loaded document selects its first page.
func (m *Machine) SetActivePage(pageID string) {
	m.mu.Lock()
	m.state.ActivePageID = pageID
	m.mu.Unlock()
}

// Reset returns the machine to idle from any state.
func (m *Machine) Reset() {
	m.notifyAfter(func() bool {
		m.transitionLocked(domain.StatusIdle)
		m.state.Dirty = false
		m.state.Error = ""
		m.state.ActivePageID = ""
		m.state.LastSavedAt = nil
		return true
	})
}
