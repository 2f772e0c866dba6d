package vm

import (
	"github.com/axe-run/axe-interpreter/parser"
)

// StepKind tags the operation a flattened Step performs. Per
// spec.md/SPEC_FULL.md §4.3's redesign note, a step is a small tagged
// struct rather than a bare closure, so the flattened program stays
// inspectable (the -t parser diagnostic prints its step and label
// counts).
type StepKind int

const (
	StepEval StepKind = iota
	StepJumpIfFalse
	StepJump
	StepLabel
	StepGotoName
	StepGotoComputed
	StepReturn
	StepMetaDebug
	StepMetaExit
)

// Step is one entry of a flattened program. Which fields are
// meaningful depends on Kind:
//
//   - StepEval: Expr is evaluated for its side effect; result discarded.
//   - StepJumpIfFalse: Expr is evaluated; if false (zero), execution
//     continues at Target instead of the next step.
//   - StepJump: execution continues unconditionally at Target.
//   - StepLabel: a no-op marker; its position is recorded in Code.Labels.
//   - StepGotoName: jump to the step labeled Name (resolved against
//     Code.Labels lazily, at step-execution time, per spec.md §4.3).
//   - StepGotoComputed: Expr evaluates to the target step index directly.
//   - StepReturn: ends the run.
//   - StepMetaDebug: sets the driver's debug level to IntArg.
//   - StepMetaExit: ends the run via SystemExit.
type Step struct {
	Kind    StepKind
	Expr    parser.Expression
	Target  int
	Name    string
	IntArg  int
	Pos     parser.Position
}

// Code is a fully flattened program: a linear, jump-addressable
// sequence of Steps plus the label table used to resolve Goto.
type Code struct {
	Steps     []Step
	Labels    map[string]int
	SourceMap map[int]parser.Position
}

// ResolveLabel looks up the step index a label name targets.
func (c *Code) ResolveLabel(name string) (int, bool) {
	idx, ok := c.Labels[name]
	return idx, ok
}
