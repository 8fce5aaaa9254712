package surface

import "sync"

// Binder is the single registration indirection for surface listeners. Every
// subscription made through it is recorded, so Close can unregister all of
// them and never leave a dangling callback after a session ends or the
// surface is torn down and recreated.
type Binder struct {
	surface Surface

	mu      sync.Mutex
	cancels []func()
	closed  bool
}

// NewBinder wraps a surface for tracked registrations.
func NewBinder(s Surface) *Binder {
	return &Binder{surface: s}
}

// On registers a listener through the underlying surface and records its
// unregister function. Registrations after Close are ignored.
func (b *Binder) On(event EventName, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	cancel := b.surface.Subscribe(event, fn)
	b.cancels = append(b.cancels, cancel)
}

// Close unregisters every listener registered through this binder.
// Idempotent.
func (b *Binder) Close() {
	b.mu.Lock()
	cancels := b.cancels
	b.cancels = nil
	b.closed = true
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Active returns the number of live registrations.
func (b *Binder) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cancels)
}
