package vm

import (
	"github.com/axe-run/axe-interpreter/memmap"
	"github.com/axe-run/axe-interpreter/parser"
)

// flattener turns a parsed *parser.Program into a flat, jump-addressable
// Code. Control structures lower via the placeholder+patch pattern: a
// conditional or unconditional jump step is emitted with a dummy
// target, the body is flattened, and the placeholder's Target field is
// patched once the real destination index is known.
type flattener struct {
	steps   []Step
	labels  map[string]int
	tempSeq int
}

// Flatten compiles a parsed program into executable Code.
func Flatten(prog *parser.Program) *Code {
	f := &flattener{labels: map[string]int{}}
	f.flattenStmts(prog.Statements)
	f.emit(Step{Kind: StepReturn, Pos: prog.Position})

	sourceMap := make(map[int]parser.Position, len(f.steps))
	for i, s := range f.steps {
		sourceMap[i] = s.Pos
	}
	return &Code{Steps: f.steps, Labels: f.labels, SourceMap: sourceMap}
}

func (f *flattener) here() int { return len(f.steps) }

func (f *flattener) emit(s Step) int {
	f.steps = append(f.steps, s)
	return len(f.steps) - 1
}

func (f *flattener) patchTarget(stepIdx, target int) {
	f.steps[stepIdx].Target = target
}

func (f *flattener) flattenStmts(stmts []parser.Statement) {
	for _, stmt := range stmts {
		f.flattenStmt(stmt)
	}
}

func (f *flattener) flattenStmt(stmt parser.Statement) {
	switch s := stmt.(type) {
	case *parser.ExpressionStatement:
		f.emit(Step{Kind: StepEval, Expr: s.Expr, Pos: s.Position})

	case *parser.Label:
		f.labels[s.Name] = f.here()
		f.emit(Step{Kind: StepLabel, Name: s.Name, Pos: s.Position})

	case *parser.Goto:
		if s.TargetExpr != nil {
			f.emit(Step{Kind: StepGotoComputed, Expr: s.TargetExpr, Pos: s.Position})
		} else {
			f.emit(Step{Kind: StepGotoName, Name: s.Name, Pos: s.Position})
		}

	case *parser.Return:
		f.emit(Step{Kind: StepReturn, Pos: s.Position})

	case *parser.MetaCommand:
		f.flattenMeta(s)

	case *parser.If:
		f.flattenIf(s)

	case *parser.While:
		f.flattenWhile(s)

	case *parser.Repeat:
		f.flattenRepeat(s)

	case *parser.For:
		f.flattenFor(s)

	case *parser.ForRange:
		f.flattenForRange(s)
	}
}

func (f *flattener) flattenMeta(s *parser.MetaCommand) {
	switch s.Name {
	case "DEBUG":
		level := 0
		if lit, ok := s.Arg.(*parser.IntegerLiteral); ok {
			level = int(lit.Value)
		}
		f.emit(Step{Kind: StepMetaDebug, IntArg: level, Pos: s.Position})
	case "EXIT":
		f.emit(Step{Kind: StepMetaExit, Pos: s.Position})
	case "HELP", "ABOUT":
		// No-op: their content is a CLI/REPL concern, out of the
		// interpreter's scope.
	}
}

func (f *flattener) flattenIf(s *parser.If) {
	j1 := f.emit(Step{Kind: StepJumpIfFalse, Expr: s.Cond, Pos: s.Position})
	f.flattenStmts(s.Then)

	if s.Else != nil {
		j2 := f.emit(Step{Kind: StepJump, Pos: s.Position})
		f.patchTarget(j1, f.here())
		f.flattenStmts(s.Else)
		f.patchTarget(j2, f.here())
	} else {
		f.patchTarget(j1, f.here())
	}
}

func (f *flattener) flattenWhile(s *parser.While) {
	loopStart := f.here()
	j1 := f.emit(Step{Kind: StepJumpIfFalse, Expr: s.Cond, Pos: s.Position})
	f.flattenStmts(s.Body)
	f.emit(Step{Kind: StepJump, Target: loopStart, Pos: s.Position})
	f.patchTarget(j1, f.here())
}

// flattenRepeat lowers a Repeat: the body always runs once, then the
// condition is checked at the bottom and the loop jumps back while
// that condition is FALSE (the opposite sense of While).
func (f *flattener) flattenRepeat(s *parser.Repeat) {
	loopStart := f.here()
	f.flattenStmts(s.Body)
	f.emit(Step{Kind: StepJumpIfFalse, Expr: s.Cond, Target: loopStart, Pos: s.Position})
}

// flattenFor lowers For(countExpr) into a counted While loop over a
// hidden counter allocated in the TEMP scratch region, since Axe's
// only storage is the A-Z variables and named regions; no source-level
// name refers to the counter, so it only collides with user state if
// a program writes into TEMP through a pointer.
func (f *flattener) flattenFor(s *parser.For) {
	counterAddr := f.allocTemp()
	counterPtr := &parser.Pointer{
		Address:  &parser.IntegerLiteral{Value: int64(counterAddr), Position: s.Position},
		Width:    2,
		Position: s.Position,
	}

	f.emit(Step{
		Kind: StepEval,
		Expr: &parser.Assignment{
			Value:    &parser.IntegerLiteral{Value: 0, Position: s.Position},
			Target:   counterPtr,
			Position: s.Position,
		},
		Pos: s.Position,
	})

	loopStart := f.here()
	cond := &parser.BinaryExpr{
		Left:     counterPtr,
		Op:       parser.OpLT,
		Right:    s.CountExpr,
		Position: s.Position,
	}
	j1 := f.emit(Step{Kind: StepJumpIfFalse, Expr: cond, Pos: s.Position})

	f.flattenStmts(s.Body)

	incr := &parser.Assignment{
		Value: &parser.BinaryExpr{
			Left:     counterPtr,
			Op:       parser.OpAdd,
			Right:    &parser.IntegerLiteral{Value: 1, Position: s.Position},
			Position: s.Position,
		},
		Target:   counterPtr,
		Position: s.Position,
	}
	f.emit(Step{Kind: StepEval, Expr: incr, Pos: s.Position})
	f.emit(Step{Kind: StepJump, Target: loopStart, Pos: s.Position})
	f.patchTarget(j1, f.here())
}

// flattenForRange lowers the full For(ptr,start,end) form: ptr is
// initialized to start, the loop runs while ptr <= end (inclusive, per
// spec.md §4.2), and ptr is incremented by 1 each pass. Unlike
// flattenFor, no hidden TEMP counter is allocated: the caller's own
// pointer/variable is the loop variable.
func (f *flattener) flattenForRange(s *parser.ForRange) {
	f.emit(Step{
		Kind: StepEval,
		Expr: &parser.Assignment{Value: s.Start, Target: s.Target, Position: s.Position},
		Pos:  s.Position,
	})

	loopStart := f.here()
	cond := &parser.BinaryExpr{Left: s.Target, Op: parser.OpLE, Right: s.End, Position: s.Position}
	j1 := f.emit(Step{Kind: StepJumpIfFalse, Expr: cond, Pos: s.Position})

	f.flattenStmts(s.Body)

	incr := &parser.Assignment{
		Value: &parser.BinaryExpr{
			Left:     s.Target,
			Op:       parser.OpAdd,
			Right:    &parser.IntegerLiteral{Value: 1, Position: s.Position},
			Position: s.Position,
		},
		Target:   s.Target,
		Position: s.Position,
	}
	f.emit(Step{Kind: StepEval, Expr: incr, Pos: s.Position})
	f.emit(Step{Kind: StepJump, Target: loopStart, Pos: s.Position})
	f.patchTarget(j1, f.here())
}

// allocTemp reserves the next 2-byte scratch cell in the TEMP region
// for a For loop's hidden counter. Nested loops each get their own
// cell; the flattener never reuses one, since a single program's
// total nesting depth is small relative to TEMP's ~32KB span.
func (f *flattener) allocTemp() int {
	addr := memmap.TEMP + 2*f.tempSeq
	f.tempSeq++
	return addr
}
