package surface

// Headless is an in-memory Surface for processes without a webview, like the
// standalone agent server. Commands are recorded instead of rendered; the
// document mirror still works, so a session can run against it.
type Headless = Mock

// NewHeadless creates a surface with no frontend behind it.
func NewHeadless() *Headless {
	return NewMock()
}
