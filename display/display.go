// Package display defines the abstract windowing/input surface the
// interpreter draws to, per spec.md's "concrete windowing/graphics
// library... specified as an abstract display+input provider." One
// concrete backend, tcell, is provided for terminal use; tests supply
// a fake satisfying the same interface.
package display

// Display is the calculator's output surface and input source.
// Refresh takes already-blended intensity levels (the Calculator owns
// the byte-pair grayscale blit, per spec.md §4.5) rather than raw
// framebuffers, so a backend only has to map a level to a shade.
type Display interface {
	// Refresh paints one frame. pixels has ScreenWidth*ScreenHeight
	// entries, row-major, each in [0,3]: 0 is white/off and 3 is
	// black/fully-on, with 1 and 2 the intermediate grays produced by
	// 3- and 4-level DispGraph blits. scale is the on-screen pixel
	// size in host cells/pixels.
	Refresh(pixels []uint8, scale int) error

	// PollEvents drains pending input and returns whether a quit
	// event (window close, Ctrl-C) was seen. Must be called at least
	// every 200ms per spec.md §5 so the host stays responsive.
	PollEvents() (quit bool, err error)

	// IsKeyDown reports whether the given Axe key code is currently
	// held, backing GetKey/is_key_pressed/is_any_key_pressed.
	IsKeyDown(code int) bool

	// SetTitle sets the window/terminal title.
	SetTitle(title string)

	// Close releases any host resources (terminal mode, window).
	Close() error
}

// KeyEvent is a single raw input event, used internally by concrete
// backends to update their pressed-key bitset between PollEvents
// calls.
type KeyEvent struct {
	Code    int
	Pressed bool
}
