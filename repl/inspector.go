package repl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/axe-run/axe-interpreter/memmap"
	"github.com/axe-run/axe-interpreter/service"
	"github.com/axe-run/axe-interpreter/vm"
)

// Inspector is a tview-based panel showing a Driver's live state,
// adapted from the teacher's debugger TUI panel layout (left source
// panel + right register/memory/stack panels) but repurposed to the
// Axe calculator's own state shape: variables, the framebuffer, and
// the step cursor instead of CPU registers and the call stack.
type Inspector struct {
	mu sync.Mutex

	App        *tview.Application
	Layout     *tview.Flex
	VarsView   *tview.TextView
	BufferView *tview.TextView
	StepView   *tview.TextView
	OutputView *tview.TextView

	driver *vm.Driver
}

// NewInspector builds the panel layout but does not start the
// application's event loop; call Run to do that.
func NewInspector(driver *vm.Driver) *Inspector {
	ins := &Inspector{driver: driver}

	ins.VarsView = tview.NewTextView().SetDynamicColors(true)
	ins.VarsView.SetBorder(true).SetTitle(" Variables ")

	ins.BufferView = tview.NewTextView().SetDynamicColors(true)
	ins.BufferView.SetBorder(true).SetTitle(" Framebuffer ")

	ins.StepView = tview.NewTextView().SetDynamicColors(true)
	ins.StepView.SetBorder(true).SetTitle(" Step ")

	ins.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	ins.OutputView.SetBorder(true).SetTitle(" Output ")

	leftPanel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ins.StepView, 3, 0, false).
		AddItem(ins.VarsView, 0, 2, false).
		AddItem(ins.OutputView, 0, 1, false)

	ins.Layout = tview.NewFlex().
		AddItem(leftPanel, 0, 1, false).
		AddItem(ins.BufferView, 0, 1, false)

	ins.App = tview.NewApplication().SetRoot(ins.Layout, true)
	ins.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			ins.App.Stop()
			return nil
		}
		return event
	})

	return ins
}

// Run starts the tview event loop; it blocks until Stop is called or
// the user quits with Ctrl-C.
func (ins *Inspector) Run() error {
	return ins.App.Run()
}

// Stop ends the event loop.
func (ins *Inspector) Stop() {
	ins.App.Stop()
}

// WriteOutput appends a line to the output panel, safe to call from
// any goroutine.
func (ins *Inspector) WriteOutput(line string) {
	ins.mu.Lock()
	defer ins.mu.Unlock()
	fmt.Fprintln(ins.OutputView, line)
	ins.App.Draw()
}

// Refresh repaints every panel from the driver's current state. It
// must be called from the same goroutine driving the interpreter,
// between steps, since it reads the driver's live fields directly.
func (ins *Inspector) Refresh() {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	snap := service.Snapshot(ins.driver)
	ins.updateStepView(snap)
	ins.updateVarsView(snap)
	ins.updateBufferView()
	ins.App.Draw()
}

func (ins *Inspector) updateStepView(snap service.StateSnapshot) {
	ins.StepView.Clear()
	fmt.Fprintf(ins.StepView, "PC: %d  Debug: %d  Diagnostic: %v\n",
		snap.PC, snap.DebugLevel, snap.Diagnostic)
}

func (ins *Inspector) updateVarsView(snap service.StateSnapshot) {
	ins.VarsView.Clear()
	for i, v := range snap.Vars {
		fmt.Fprintf(ins.VarsView, "%c = %6d (0x%04X)", v.Letter, int16(v.Value), v.Value)
		if i%3 == 2 {
			fmt.Fprintln(ins.VarsView)
		} else {
			fmt.Fprint(ins.VarsView, "   ")
		}
	}
}

// updateBufferView renders the primary framebuffer as a block of
// ASCII dots, one character per pixel, the same "on/off" distinction
// the terminal Display backend paints at scale 1.
func (ins *Inspector) updateBufferView() {
	ins.BufferView.Clear()
	dump, ok := service.RegionDump(ins.driver, "L6")
	if !ok {
		return
	}
	var b strings.Builder
	for y := 0; y < memmap.ScreenHeight; y++ {
		for x := 0; x < memmap.ScreenWidth; x++ {
			off := y*memmap.BytesPerRow + x/8
			mask := byte(1 << uint(7-(x&7)))
			if off < len(dump.Data) && dump.Data[off]&mask != 0 {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(ins.BufferView, b.String())
}
