package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/axe-run/axe-interpreter/keymap"
	"github.com/axe-run/axe-interpreter/memmap"
)

func mustRun(t *testing.T, src string) *Driver {
	t.Helper()
	code := mustFlatten(t, src)
	calc := NewCalculator(newFakeDisplay(), keymap.Default())
	d := NewDriver(code, calc, 1)
	if err := d.Run(); err != nil {
		if _, ok := err.(*SystemExit); !ok {
			t.Fatalf("unexpected run error: %v", err)
		}
	}
	return d
}

func TestDriverSimpleAssignment(t *testing.T) {
	d := mustRun(t, "5->A")
	if got := d.Calc.GetVar('A'); got != 5 {
		t.Errorf("A = %d, want 5", got)
	}
}

func TestDriverFlatLeftAssociativeEvaluation(t *testing.T) {
	// No operator precedence: (2+3)*4 = 20, not 2+(3*4) = 14.
	d := mustRun(t, "2+3*4->A")
	if got := d.Calc.GetVar('A'); got != 20 {
		t.Errorf("A = %d, want 20 (flat left-to-right evaluation)", got)
	}
}

func TestDriverWhileLoopRunsZeroTimesWhenFalse(t *testing.T) {
	d := mustRun(t, "0->A\nWhile A<0\nA++\nEnd")
	if got := d.Calc.GetVar('A'); got != 0 {
		t.Errorf("A = %d, want 0 (While body never runs)", got)
	}
}

func TestDriverRepeatRunsAtLeastOnce(t *testing.T) {
	// Repeat's condition is checked at the bottom, so even a
	// trivially-true condition still runs the body once.
	d := mustRun(t, "0->A\nRepeat 1\nA++\nEnd")
	if got := d.Calc.GetVar('A'); got != 1 {
		t.Errorf("A = %d, want 1 (Repeat always runs its body once)", got)
	}
}

func TestDriverForLoopsExactCount(t *testing.T) {
	d := mustRun(t, "0->A\nFor(5)\nA++\nEnd")
	if got := d.Calc.GetVar('A'); got != 5 {
		t.Errorf("A = %d, want 5", got)
	}
}

func TestDriverGotoJumpsToLabel(t *testing.T) {
	d := mustRun(t, "0->A\nGoto SKIP\n99->A\nLbl SKIP\n1->A")
	if got := d.Calc.GetVar('A'); got != 1 {
		t.Errorf("A = %d, want 1 (direct line skipped by Goto)", got)
	}
}

func TestDriverComputedGoto(t *testing.T) {
	d := mustRun(t, "L^^ TARGET->A\n1->B\nGoto(A)\n2->B\nLbl TARGET\n3->B")
	if got := d.Calc.GetVar('B'); got != 3 {
		t.Errorf("B = %d, want 3 (computed goto should skip the intervening assignment)", got)
	}
}

func TestDriverMissingLabelIsRuntimeError(t *testing.T) {
	code := mustFlatten(t, "Goto NOWHERE")
	calc := NewCalculator(newFakeDisplay(), keymap.Default())
	d := NewDriver(code, calc, 1)
	err := d.Run()
	if _, ok := err.(*MissingLabel); !ok {
		t.Fatalf("expected *MissingLabel, got %T (%v)", err, err)
	}
}

func TestDriverDivisionByZeroIsRuntimeError(t *testing.T) {
	code := mustFlatten(t, "1/0->A")
	calc := NewCalculator(newFakeDisplay(), keymap.Default())
	d := NewDriver(code, calc, 1)
	err := d.Run()
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("expected *RuntimeError, got %T (%v)", err, err)
	}
}

func TestDriverExitMetaCommand(t *testing.T) {
	code := mustFlatten(t, "1->A\n@EXIT\n2->A")
	calc := NewCalculator(newFakeDisplay(), keymap.Default())
	d := NewDriver(code, calc, 1)
	err := d.Run()
	exit, ok := err.(*SystemExit)
	if !ok {
		t.Fatalf("expected *SystemExit, got %T (%v)", err, err)
	}
	if exit.Code != 0 {
		t.Errorf("exit code = %d, want 0", exit.Code)
	}
	if got := calc.GetVar('A'); got != 1 {
		t.Errorf("A = %d, want 1 (@EXIT should stop before the next statement)", got)
	}
}

func TestDriverQuitEventStopsRun(t *testing.T) {
	// An infinite While loop only terminates if the driver's periodic
	// event poll observes a quit event; this exercises that the poll
	// actually fires during a tight loop rather than only between runs.
	code := mustFlatten(t, "While 1\nA++\nEnd")
	fd := newFakeDisplay()
	fd.quitOnPoll = true
	calc := NewCalculator(fd, keymap.Default())
	d := NewDriver(code, calc, 1)
	err := d.Run()
	if _, ok := err.(*SystemExit); !ok {
		t.Fatalf("expected quit event to produce *SystemExit, got %T (%v)", err, err)
	}
}

func TestDriverPixelCommand(t *testing.T) {
	d := mustRun(t, "Pxl-On(0,0)")
	if !d.Calc.PxlTest(memmap.PrimaryBuffer, 0, 0) {
		t.Error("expected Pxl-On(0,0) to set the pixel in the primary buffer")
	}
}

func TestDriverPixelCommandRetargetsBackBuffer(t *testing.T) {
	d := mustRun(t, "Pxl-On(0,0)^^r")
	if d.Calc.PxlTest(memmap.PrimaryBuffer, 0, 0) {
		t.Error("expected ^^r to keep the primary buffer untouched")
	}
	if !d.Calc.PxlTest(memmap.BackBuffer, 0, 0) {
		t.Error("expected ^^r to set the pixel in the back buffer")
	}
}

func TestDriverRectCustomBufferBase(t *testing.T) {
	// The extra trailing argument is a literal buffer base address, not
	// a boolean L6-vs-L3 switch.
	d := mustRun(t, "Rect(0,0,1,1,5000)")
	if d.Calc.GetByte(5000) == 0 {
		t.Error("expected Rect(...,5000) to draw into address 5000")
	}
}

func TestDriverForRangeFullForm(t *testing.T) {
	d := mustRun(t, "0->A\nFor(I,1,10)\nA+I->A\nEnd")
	if got := d.Calc.GetVar('A'); got != 55 {
		t.Errorf("A = %d, want 55 (sum 1..10 inclusive)", got)
	}
	if got := d.Calc.GetVar('I'); got != 11 {
		t.Errorf("I = %d, want 11 (loop variable past the inclusive end)", got)
	}
}

func TestDriverHorizontalShiftClearsVacatedColumn(t *testing.T) {
	d := mustRun(t, "Pxl-On(0,0)\nHorizontal+")
	if d.Calc.PxlTest(memmap.PrimaryBuffer, 0, 0) {
		t.Error("expected the vacated column to be cleared")
	}
	if !d.Calc.PxlTest(memmap.PrimaryBuffer, 1, 0) {
		t.Error("expected the pixel to have shifted one column right")
	}
}

func TestDriverDispWritesValueToOut(t *testing.T) {
	code := mustFlatten(t, "55->A\nDisp A")
	calc := NewCalculator(newFakeDisplay(), keymap.Default())
	d := NewDriver(code, calc, 1)
	var buf bytes.Buffer
	d.Out = &buf
	if err := d.Run(); err != nil {
		if _, ok := err.(*SystemExit); !ok {
			t.Fatalf("unexpected run error: %v", err)
		}
	}
	if !strings.Contains(buf.String(), "Disp: 55") {
		t.Errorf("output = %q, want it to contain %q", buf.String(), "Disp: 55")
	}
}

func TestDriverDispGraphGrayLevelsFromRetargetCount(t *testing.T) {
	code := mustFlatten(t, "Pxl-On(0,0)^^r\nDispGraph^^r^^r")
	calc := NewCalculator(newFakeDisplay(), keymap.Default())
	d := NewDriver(code, calc, 1)
	if err := d.Run(); err != nil {
		if _, ok := err.(*SystemExit); !ok {
			t.Fatalf("unexpected run error: %v", err)
		}
	}
	fd := calc.Display.(*fakeDisplay)
	if len(fd.refreshed) != 1 {
		t.Fatalf("expected one Refresh call, got %d", len(fd.refreshed))
	}
	// The pixel was only set in the back buffer; with 4 gray levels
	// that's a distinct level (2) from a front-only pixel (1).
	if fd.refreshed[0][0] != 2 {
		t.Errorf("pixel level = %d, want 2 (back-buffer-only at 4 gray levels)", fd.refreshed[0][0])
	}
}
