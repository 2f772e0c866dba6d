package display

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/axe-run/axe-interpreter/keymap"
	"github.com/axe-run/axe-interpreter/memmap"
)

// keyHoldWindow is how long a key keeps reading as "down" after its
// last observed keypress event. Terminals only report key-down, never
// key-up, so IsKeyDown approximates "held" by decay rather than by a
// real press/release pair.
const keyHoldWindow = 150 * time.Millisecond

// shades maps a blended intensity level (0..3) to the terminal cell
// used to represent it: full block at increasing density.
var shades = [4]rune{' ', '░', '▒', '█'}

// TcellDisplay is the terminal Display backend, grounded in the
// teacher's tview/tcell-based debugger TUI (panel layout, input
// capture) but driving a plain tcell.Screen directly since the
// calculator only needs a pixel grid, not a multi-pane application.
type TcellDisplay struct {
	screen   tcell.Screen
	bindings *keymap.Bindings
	pressed  map[int]time.Time
	events   chan tcell.Event
}

// NewTcellDisplay initializes a terminal screen and starts its
// background event-polling goroutine.
func NewTcellDisplay(bindings *keymap.Bindings) (*TcellDisplay, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("display: creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("display: initializing screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()

	d := &TcellDisplay{
		screen:   screen,
		bindings: bindings,
		pressed:  map[int]time.Time{},
		events:   make(chan tcell.Event, 64),
	}
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(d.events)
				return
			}
			d.events <- ev
		}
	}()
	return d, nil
}

func (d *TcellDisplay) SetTitle(title string) {
	// tcell has no portable window-title API from inside the
	// terminal; most terminal emulators accept this escape sequence.
	fmt.Print("\x1b]0;" + title + "\x07")
}

func (d *TcellDisplay) Close() error {
	d.screen.Fini()
	return nil
}

// Refresh paints pixels (ScreenWidth*ScreenHeight intensity levels)
// onto the terminal, scale host-rows per Axe pixel row (each host row
// is roughly twice as tall as wide, so horizontal scale is doubled to
// keep drawings square-ish).
func (d *TcellDisplay) Refresh(pixels []uint8, scale int) error {
	if scale < 1 {
		scale = 1
	}
	style := tcell.StyleDefault
	for y := 0; y < memmap.ScreenHeight; y++ {
		for x := 0; x < memmap.ScreenWidth; x++ {
			level := pixels[y*memmap.ScreenWidth+x]
			ch := shades[level]
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale*2; dx++ {
					d.screen.SetContent(x*scale*2+dx, y*scale+dy, ch, nil, style)
				}
			}
		}
	}
	d.screen.Show()
	return nil
}

// PollEvents drains every event queued since the last call, updating
// the pressed-key table and reporting whether a quit was requested.
func (d *TcellDisplay) PollEvents() (bool, error) {
	for {
		select {
		case ev, ok := <-d.events:
			if !ok {
				return true, nil
			}
			switch e := ev.(type) {
			case *tcell.EventKey:
				if e.Key() == tcell.KeyCtrlC || e.Key() == tcell.KeyEscape {
					return true, nil
				}
				if code, ok := d.bindings.Resolve(hostKeyName(e)); ok {
					d.pressed[code] = time.Now()
				}
			case *tcell.EventResize:
				d.screen.Sync()
			}
		default:
			return false, nil
		}
	}
}

func hostKeyName(e *tcell.EventKey) string {
	switch e.Key() {
	case tcell.KeyDown:
		return "ArrowDown"
	case tcell.KeyUp:
		return "ArrowUp"
	case tcell.KeyLeft:
		return "ArrowLeft"
	case tcell.KeyRight:
		return "ArrowRight"
	case tcell.KeyEnter:
		return "Enter"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "Backspace"
	case tcell.KeyRune:
		return string(e.Rune())
	}
	return ""
}

// IsKeyDown reports whether code was pressed within the last
// keyHoldWindow.
func (d *TcellDisplay) IsKeyDown(code int) bool {
	t, ok := d.pressed[code]
	if !ok {
		return false
	}
	return time.Since(t) < keyHoldWindow
}
