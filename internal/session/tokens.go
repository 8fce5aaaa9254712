package session

import "sync"

// OpClass identifies a family of operations that must not overlap.
type OpClass string

const (
	OpPageSwitch   OpClass = "page-switch"
	OpResourceLoad OpClass = "resource-load"
)

// Token represents one in-flight cancelable operation. The operation's
// asynchronous steps must check Cancelled after every suspension point and
// abort without further side effects when it reports true.
type Token struct {
	class OpClass
	gen   uint64

	mu        sync.Mutex
	cancelled bool
}

// Generation returns the token's monotonic sequence number.
func (t *Token) Generation() uint64 { return t.gen }

// Class returns the operation class this token belongs to.
func (t *Token) Class() OpClass { return t.class }

// Cancelled reports whether a newer token superseded this one.
func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

func (t *Token) cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}

// TokenManager issues cancellation tokens. At most one non-cancelled token
// per operation class exists at any time: issuing a new token immediately
// cancels the previous one of the same class.
type TokenManager struct {
	mu   sync.Mutex
	gen  uint64
	live map[OpClass]*Token
}

// NewTokenManager creates an empty manager.
func NewTokenManager() *TokenManager {
	return &TokenManager{live: make(map[OpClass]*Token)}
}

// Begin issues a new token for the class, cancelling any live predecessor.
func (m *TokenManager) Begin(class OpClass) *Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.live[class]; ok {
		prev.cancel()
	}
	m.gen++
	t := &Token{class: class, gen: m.gen}
	m.live[class] = t
	return t
}

// Complete retires a token. Returns false — a no-op — when the token was
// already cancelled: a superseded operation must not report completion.
func (m *TokenManager) Complete(t *Token) bool {
	if t == nil || t.Cancelled() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live[t.class] == t {
		delete(m.live, t.class)
	}
	return true
}

// CancelAll cancels every live token. Used on session teardown.
func (m *TokenManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for class, t := range m.live {
		t.cancel()
		delete(m.live, class)
	}
}
