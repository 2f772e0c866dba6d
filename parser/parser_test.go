package parser_test

import (
	"testing"

	"github.com/axe-run/axe-interpreter/parser"
)

func mustParse(t *testing.T, src string) *parser.Program {
	t.Helper()
	p := parser.NewParser(src, "<test>")
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("unexpected parse error for %q: %v", src, err)
	}
	return prog
}

func TestParseSimpleAssignment(t *testing.T) {
	prog := mustParse(t, "5->A")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	es, ok := prog.Statements[0].(*parser.ExpressionStatement)
	if !ok {
		t.Fatalf("expected ExpressionStatement, got %T", prog.Statements[0])
	}
	assign, ok := es.Expr.(*parser.Assignment)
	if !ok {
		t.Fatalf("expected Assignment, got %T", es.Expr)
	}
	if _, ok := assign.Target.(*parser.VarRef); !ok {
		t.Errorf("expected assignment target VarRef, got %T", assign.Target)
	}
}

func TestParseFlatLeftAssociativeChain(t *testing.T) {
	// Axe has no operator precedence: 2+3*4 parses as (2+3)*4, not
	// 2+(3*4).
	prog := mustParse(t, "2+3*4->A")
	es := prog.Statements[0].(*parser.ExpressionStatement)
	assign := es.Expr.(*parser.Assignment)
	outer, ok := assign.Value.(*parser.BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr, got %T", assign.Value)
	}
	if outer.Op != parser.OpMul {
		t.Errorf("expected outermost op to be the last one seen (Mul), got %v", outer.Op)
	}
	inner, ok := outer.Left.(*parser.BinaryExpr)
	if !ok || inner.Op != parser.OpAdd {
		t.Errorf("expected left operand to be the earlier Add, got %#v", outer.Left)
	}
}

func TestParseUnaryMinusRewritesToZeroSub(t *testing.T) {
	prog := mustParse(t, "-A->B")
	es := prog.Statements[0].(*parser.ExpressionStatement)
	assign := es.Expr.(*parser.Assignment)
	bin, ok := assign.Value.(*parser.BinaryExpr)
	if !ok {
		t.Fatalf("expected unary minus to rewrite to BinaryExpr, got %T", assign.Value)
	}
	lit, ok := bin.Left.(*parser.IntegerLiteral)
	if !ok || lit.Value != 0 || bin.Op != parser.OpSub {
		t.Errorf("expected 0-A, got %#v op=%v", bin.Left, bin.Op)
	}
}

func TestParseLabelRequiresLblKeyword(t *testing.T) {
	prog := mustParse(t, "Lbl LOOP\nGoto LOOP")
	lbl, ok := prog.Statements[0].(*parser.Label)
	if !ok || lbl.Name != "LOOP" {
		t.Fatalf("expected Label LOOP, got %#v", prog.Statements[0])
	}
	g, ok := prog.Statements[1].(*parser.Goto)
	if !ok || g.Name != "LOOP" {
		t.Fatalf("expected Goto LOOP, got %#v", prog.Statements[1])
	}
}

func TestParseLabelTooLong(t *testing.T) {
	p := parser.NewParser("Lbl TOOLONGNAME", "<test>")
	_, err := p.Parse()
	if err == nil {
		t.Error("expected error for label name over 8 characters")
	}
}

func TestParseComputedGoto(t *testing.T) {
	prog := mustParse(t, "Goto(A)")
	g, ok := prog.Statements[0].(*parser.Goto)
	if !ok || g.TargetExpr == nil || g.Name != "" {
		t.Fatalf("expected computed Goto with TargetExpr, got %#v", prog.Statements[0])
	}
}

func TestParseLowCaretDisambiguation(t *testing.T) {
	// L^^ NAME (short identifier, no following paren) is a label
	// reference; l^^ptr (anything else) is the low-byte modifier.
	prog := mustParse(t, "L^^ TARGET->A")
	es := prog.Statements[0].(*parser.ExpressionStatement)
	assign := es.Expr.(*parser.Assignment)
	if _, ok := assign.Value.(*parser.LabelRef); !ok {
		t.Errorf("expected LabelRef, got %T", assign.Value)
	}

	prog2 := mustParse(t, "l^^A->B")
	es2 := prog2.Statements[0].(*parser.ExpressionStatement)
	assign2 := es2.Expr.(*parser.Assignment)
	if _, ok := assign2.Value.(*parser.LowByte); !ok {
		t.Errorf("expected LowByte, got %T", assign2.Value)
	}
}

func TestParseIfNestedInWhile(t *testing.T) {
	src := "While A<10\nIf A==5\nGoto DONE\nEnd\nA++\nEnd"
	prog := mustParse(t, src)
	while, ok := prog.Statements[0].(*parser.While)
	if !ok {
		t.Fatalf("expected While, got %T", prog.Statements[0])
	}
	if len(while.Body) != 2 {
		t.Fatalf("expected 2 statements in While body, got %d", len(while.Body))
	}
	ifStmt, ok := while.Body[0].(*parser.If)
	if !ok || len(ifStmt.Then) != 1 {
		t.Errorf("expected nested If with one Then statement, got %#v", while.Body[0])
	}
}

func TestParsePointerWidthModifier(t *testing.T) {
	prog := mustParse(t, "{L1}^^r->A")
	es := prog.Statements[0].(*parser.ExpressionStatement)
	assign := es.Expr.(*parser.Assignment)
	ptr, ok := assign.Value.(*parser.Pointer)
	if !ok || ptr.Width != 2 {
		t.Errorf("expected width-2 Pointer, got %#v", assign.Value)
	}
}

func TestParseCommandWithArgs(t *testing.T) {
	prog := mustParse(t, "Pxl-On(5,10)")
	es := prog.Statements[0].(*parser.ExpressionStatement)
	cmd, ok := es.Expr.(*parser.Command)
	if !ok || cmd.Name != "Pxl-On" || len(cmd.Args) != 2 {
		t.Fatalf("expected Pxl-On(5,10) command, got %#v", es.Expr)
	}
}

func TestParseUnterminatedIfReportsError(t *testing.T) {
	p := parser.NewParser("If A", "<test>")
	_, err := p.Parse()
	if err == nil {
		t.Error("expected error for unterminated If block")
	}
}

func TestParseForRangeFullForm(t *testing.T) {
	prog := mustParse(t, "For(I,1,10)\nA+I->A\nEnd")
	fr, ok := prog.Statements[0].(*parser.ForRange)
	if !ok {
		t.Fatalf("expected ForRange, got %T", prog.Statements[0])
	}
	target, ok := fr.Target.(*parser.VarRef)
	if !ok || target.Letter != 'I' {
		t.Errorf("expected target VarRef I, got %#v", fr.Target)
	}
	start, ok := fr.Start.(*parser.IntegerLiteral)
	if !ok || start.Value != 1 {
		t.Errorf("expected start 1, got %#v", fr.Start)
	}
	end, ok := fr.End.(*parser.IntegerLiteral)
	if !ok || end.Value != 10 {
		t.Errorf("expected end 10, got %#v", fr.End)
	}
	if len(fr.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fr.Body))
	}
}

func TestParseForBareCountStillWorks(t *testing.T) {
	prog := mustParse(t, "For(5)\nA++\nEnd")
	fr, ok := prog.Statements[0].(*parser.For)
	if !ok {
		t.Fatalf("expected For, got %T", prog.Statements[0])
	}
	lit, ok := fr.CountExpr.(*parser.IntegerLiteral)
	if !ok || lit.Value != 5 {
		t.Errorf("expected CountExpr 5, got %#v", fr.CountExpr)
	}
}

func TestParseDispBareNoParens(t *testing.T) {
	prog := mustParse(t, "Disp A")
	es := prog.Statements[0].(*parser.ExpressionStatement)
	cmd, ok := es.Expr.(*parser.Command)
	if !ok || cmd.Name != "Disp" || len(cmd.Args) != 1 {
		t.Fatalf("expected Disp command with 1 arg, got %#v", es.Expr)
	}
	if _, ok := cmd.Args[0].(*parser.VarRef); !ok {
		t.Errorf("expected arg to be VarRef A, got %#v", cmd.Args[0])
	}
}

func TestParseDispMultipleArgs(t *testing.T) {
	prog := mustParse(t, "Disp A,B,C")
	cmd := prog.Statements[0].(*parser.ExpressionStatement).Expr.(*parser.Command)
	if len(cmd.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(cmd.Args))
	}
}

func TestParsePauseBareNoParens(t *testing.T) {
	prog := mustParse(t, "Pause 100")
	cmd := prog.Statements[0].(*parser.ExpressionStatement).Expr.(*parser.Command)
	if cmd.Name != "Pause" || len(cmd.Args) != 1 {
		t.Fatalf("expected Pause command with 1 arg, got %#v", cmd)
	}
}

func TestParseCommandRetargetSuffix(t *testing.T) {
	prog := mustParse(t, "Pxl-On(5,10)^^r")
	cmd := prog.Statements[0].(*parser.ExpressionStatement).Expr.(*parser.Command)
	if cmd.Retarget != 1 {
		t.Errorf("expected Retarget=1, got %d", cmd.Retarget)
	}
}

func TestParseDispGraphDoubleRetargetSuffix(t *testing.T) {
	prog := mustParse(t, "DispGraph^^r^^r")
	cmd := prog.Statements[0].(*parser.ExpressionStatement).Expr.(*parser.Command)
	if cmd.Name != "DispGraph" || cmd.Retarget != 2 {
		t.Fatalf("expected DispGraph with Retarget=2, got %#v", cmd)
	}
}

func TestParseHorizontalVerticalShift(t *testing.T) {
	prog := mustParse(t, "Horizontal+\nVertical-")
	h := prog.Statements[0].(*parser.ExpressionStatement).Expr.(*parser.Command)
	if h.Name != "ShiftBufferHorizontal" || len(h.Args) != 1 {
		t.Fatalf("expected ShiftBufferHorizontal with dir arg, got %#v", h)
	}
	dir := h.Args[0].(*parser.IntegerLiteral)
	if dir.Value != 1 {
		t.Errorf("expected Horizontal+ dir=1, got %d", dir.Value)
	}

	v := prog.Statements[1].(*parser.ExpressionStatement).Expr.(*parser.Command)
	if v.Name != "ShiftBufferVertical" {
		t.Fatalf("expected ShiftBufferVertical, got %#v", v)
	}
	vdir := v.Args[0].(*parser.IntegerLiteral)
	if vdir.Value != -1 {
		t.Errorf("expected Vertical- dir=-1, got %d", vdir.Value)
	}
}

func TestParseHorizontalWithCustomBufferAndRetarget(t *testing.T) {
	prog := mustParse(t, "Horizontal+(5000)^^r")
	cmd := prog.Statements[0].(*parser.ExpressionStatement).Expr.(*parser.Command)
	if len(cmd.Args) != 2 {
		t.Fatalf("expected dir + custom buffer args, got %#v", cmd.Args)
	}
	buf := cmd.Args[1].(*parser.IntegerLiteral)
	if buf.Value != 5000 {
		t.Errorf("expected custom buffer base 5000, got %d", buf.Value)
	}
	if cmd.Retarget != 1 {
		t.Errorf("expected Retarget=1, got %d", cmd.Retarget)
	}
}
