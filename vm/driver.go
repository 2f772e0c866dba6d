package vm

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/axe-run/axe-interpreter/keymap"
	"github.com/axe-run/axe-interpreter/memmap"
	"github.com/axe-run/axe-interpreter/parser"
)

// eventDrainInterval is the maximum time the driver lets pass between
// polling the display for input/quit events while running a tight
// loop, per spec.md §5's "at least every 200ms".
const eventDrainInterval = 200 * time.Millisecond

// defaultPauseRatio is the clock-tick divisor Pause(n) sleeps against,
// per spec.md §5.
const defaultPauseRatio = 1800

// Driver fetches and executes a flattened Code against a Calculator,
// the way the teacher's VM.Step/VM.Run fetch-execute loop walks
// decoded instructions against CPU+Memory.
type Driver struct {
	Code  *Code
	Calc  *Calculator
	Scale int

	PC         int
	DebugLevel int
	Diagnostic bool

	PauseRatio int
	lastPoll   time.Time

	// Out is where Disp writes its output (spec.md §3's `Disp: <value>`
	// lines). Defaults to os.Stdout; the REPL overrides it with the
	// session's own writer.
	Out io.Writer
}

// NewDriver creates a driver ready to run code against calc.
func NewDriver(code *Code, calc *Calculator, scale int) *Driver {
	return &Driver{
		Code:       code,
		Calc:       calc,
		Scale:      scale,
		PauseRatio: defaultPauseRatio,
		Out:        os.Stdout,
	}
}

// Run executes steps from the current PC until the program ends or a
// SystemExit is raised. A SystemExit is returned (not swallowed) so
// the REPL/CLI boundary can distinguish a clean exit from a crash.
func (d *Driver) Run() error {
	d.lastPoll = time.Now()
	for d.PC >= 0 && d.PC < len(d.Code.Steps) {
		if time.Since(d.lastPoll) >= eventDrainInterval {
			quit, err := d.Calc.Display.PollEvents()
			if err != nil {
				return err
			}
			if quit {
				return &SystemExit{Code: 0}
			}
			d.lastPoll = time.Now()
		}

		next, err := d.execStep(d.Code.Steps[d.PC])
		if err != nil {
			return err
		}
		d.PC = next
	}
	return nil
}

func (d *Driver) execStep(step Step) (int, error) {
	switch step.Kind {
	case StepEval:
		if _, err := d.Eval(step.Expr); err != nil {
			return 0, err
		}
		return d.PC + 1, nil

	case StepJumpIfFalse:
		v, err := d.Eval(step.Expr)
		if err != nil {
			return 0, err
		}
		if v == 0 {
			return step.Target, nil
		}
		return d.PC + 1, nil

	case StepJump:
		return step.Target, nil

	case StepLabel:
		return d.PC + 1, nil

	case StepGotoName:
		idx, ok := d.Code.ResolveLabel(step.Name)
		if !ok {
			return 0, &MissingLabel{Pos: step.Pos, Name: step.Name}
		}
		return idx, nil

	case StepGotoComputed:
		v, err := d.Eval(step.Expr)
		if err != nil {
			return 0, err
		}
		return int(v), nil

	case StepReturn:
		return len(d.Code.Steps), nil

	case StepMetaDebug:
		d.DebugLevel = step.IntArg
		return d.PC + 1, nil

	case StepMetaExit:
		return 0, &SystemExit{Code: 0}
	}
	return d.PC + 1, nil
}

// evalCommand dispatches a builtin call. Arity/semantics are fixed
// per command name; unknown commands are a runtime error rather than
// a parse-time one, since Axe's grammar treats any bare
// Name(args...) as a plausible command.
func (d *Driver) evalCommand(cmd *parser.Command) (int64, error) {
	args, err := d.evalArgs(cmd.Args)
	if err != nil {
		return 0, err
	}

	switch cmd.Name {
	case "GetKey":
		return d.getKey()

	case "is_key_pressed":
		if len(args) < 1 {
			return 0, argError(cmd)
		}
		return boolInt(d.Calc.IsKeyPressed(int(args[0]))), nil

	case "is_any_key_pressed":
		return boolInt(d.Calc.IsAnyKeyPressed()), nil

	case "Pxl-On":
		return 0, d.pixelCmd(cmd, args, d.Calc.PxlOn)
	case "Pxl-Off":
		return 0, d.pixelCmd(cmd, args, d.Calc.PxlOff)
	case "Pxl-Change":
		return 0, d.pixelCmd(cmd, args, d.Calc.PxlChange)
	case "Pxl-Test":
		if len(args) < 2 {
			return 0, argError(cmd)
		}
		buf := resolveBuffer(cmd, args, 2)
		return boolInt(d.Calc.PxlTest(buf, int(args[0]), int(args[1]))), nil

	case "Rect":
		return 0, d.rectCmd(cmd, args, DrawOn)
	case "ClrRect":
		return 0, d.rectCmd(cmd, args, DrawOff)
	case "RectXOR":
		return 0, d.rectCmd(cmd, args, DrawChange)

	case "Line":
		if len(args) < 4 {
			return 0, argError(cmd)
		}
		buf := resolveBuffer(cmd, args, 4)
		d.Calc.Line(buf, int(args[0]), int(args[1]), int(args[2]), int(args[3]))
		return 0, nil

	case "Circle":
		if len(args) < 3 {
			return 0, argError(cmd)
		}
		buf := resolveBuffer(cmd, args, 3)
		d.Calc.Circle(buf, int(args[0]), int(args[1]), int(args[2]))
		return 0, nil

	case "ShiftBufferVertical":
		if len(args) < 1 {
			return 0, argError(cmd)
		}
		buf := resolveBuffer(cmd, args, 1)
		d.Calc.ShiftBufferVertical(buf, int(args[0]))
		return 0, nil

	case "ShiftBufferHorizontal":
		if len(args) < 1 {
			return 0, argError(cmd)
		}
		buf := resolveBuffer(cmd, args, 1)
		d.Calc.ShiftBufferHorizontal(buf, int(args[0]))
		return 0, nil

	case "ClrDraw", "ClrHome":
		d.Calc.Rect(memmap.PrimaryBuffer, 0, 0, memmap.ScreenWidth, memmap.ScreenHeight, DrawOff)
		return 0, nil

	case "DispGraph":
		levels := 2 + cmd.Retarget
		if levels > 4 {
			levels = 4
		}
		if err := d.Calc.DispGraph(d.Scale, levels); err != nil {
			return 0, err
		}
		return 0, nil

	case "Disp":
		if len(args) == 0 {
			fmt.Fprintln(d.Out, "Disp:")
			return 0, nil
		}
		for _, v := range args {
			fmt.Fprintf(d.Out, "Disp: %d\n", v)
		}
		return 0, nil

	case "Pause":
		ticks := int64(0)
		if len(args) > 0 {
			ticks = args[0]
		}
		time.Sleep(time.Duration(ticks) * time.Second / time.Duration(d.PauseRatio))
		return 0, nil

	case "DiagnosticOn":
		d.Diagnostic = true
		return 0, nil
	case "DiagnosticOff":
		d.Diagnostic = false
		return 0, nil
	}

	return 0, &RuntimeError{Pos: cmd.Position, Message: "unknown command " + cmd.Name}
}

func argError(cmd *parser.Command) error {
	return &RuntimeError{Pos: cmd.Position, Message: cmd.Name + ": wrong number of arguments"}
}

func (d *Driver) evalArgs(exprs []parser.Expression) ([]int64, error) {
	args := make([]int64, len(exprs))
	for i, e := range exprs {
		v, err := d.Eval(e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// resolveBuffer picks a drawing command's target buffer base address.
// An argument past requiredCount is an explicit custom buffer base
// (spec.md §4.2's "extra trailing ,buf argument"), used verbatim as an
// address rather than as a boolean switch. Otherwise, a trailing ^^r
// modifier (cmd.Retarget > 0) retargets from the primary buffer to the
// back buffer; absent either, the primary buffer is used.
func resolveBuffer(cmd *parser.Command, args []int64, requiredCount int) int {
	if len(args) > requiredCount {
		return int(args[requiredCount])
	}
	if cmd.Retarget > 0 {
		return memmap.BackBuffer
	}
	return memmap.PrimaryBuffer
}

func (d *Driver) pixelCmd(cmd *parser.Command, args []int64, op func(buffer, x, y int)) error {
	if len(args) < 2 {
		return argError(cmd)
	}
	buf := resolveBuffer(cmd, args, 2)
	op(buf, int(args[0]), int(args[1]))
	return nil
}

func (d *Driver) rectCmd(cmd *parser.Command, args []int64, mode int) error {
	if len(args) < 4 {
		return argError(cmd)
	}
	buf := resolveBuffer(cmd, args, 4)
	d.Calc.Rect(buf, int(args[0]), int(args[1]), int(args[2]), int(args[3]), mode)
	return nil
}

// getKey blocks, polling the display, until some key is held, then
// returns the lowest-numbered pressed Axe key code.
func (d *Driver) getKey() (int64, error) {
	for {
		quit, err := d.Calc.Display.PollEvents()
		if err != nil {
			return 0, err
		}
		if quit {
			return 0, &SystemExit{Code: 0}
		}
		for code := 1; code <= keymap.KeyOn; code++ {
			if d.Calc.Display.IsKeyDown(code) {
				return int64(code), nil
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
}
