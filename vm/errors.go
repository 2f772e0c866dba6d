package vm

import (
	"fmt"

	"github.com/axe-run/axe-interpreter/parser"
)

// RuntimeError is a generic execution failure (e.g. division by
// zero) that isn't one of the more specific kinds below. Lex and
// syntax errors are *parser.Error, constructed before execution ever
// starts; these three are the only error shapes an interpreter run
// itself can produce, per spec.md §7.
type RuntimeError struct {
	Pos     parser.Position
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: runtime error: %s", e.Pos, e.Message)
}

// MissingLabel is raised when a direct `Goto NAME` or an `L^^ NAME`
// reference names a label that doesn't exist in the flattened program. Resolution is
// lazy (at step time, not flatten time) per spec.md §4.3, so this can
// only surface once execution actually reaches the offending Goto.
type MissingLabel struct {
	Pos  parser.Position
	Name string
}

func (e *MissingLabel) Error() string {
	return fmt.Sprintf("%s: missing label: %q", e.Pos, e.Name)
}

// SystemExit is a sentinel error signaling a clean, intentional end
// of the run (an @EXIT meta command, or a quit event from the display).
// It's checked with errors.As at
// the REPL/run boundary rather than calling os.Exit deep in the
// interpreter, so tests can observe it without killing the test
// binary.
type SystemExit struct {
	Code int
}

func (e *SystemExit) Error() string {
	return fmt.Sprintf("system exit (code %d)", e.Code)
}
