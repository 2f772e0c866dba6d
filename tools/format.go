package tools

import (
	"fmt"
	"strings"

	"github.com/axe-run/axe-interpreter/parser"
)

// FormatOptions controls the pretty-printer's indentation.
type FormatOptions struct {
	IndentSize int // spaces per nesting level
}

// DefaultFormatOptions matches the indentation most Axe sample
// programs are written with.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{IndentSize: 2}
}

// Formatter re-serializes a parsed program back to Axe source,
// normalizing indentation and operator spacing the way the teacher's
// Formatter normalizes mnemonic/operand columns.
type Formatter struct {
	options *FormatOptions
	output  strings.Builder
	depth   int
}

// NewFormatter creates a formatter with the given options (nil for
// defaults).
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// Format parses input and returns its canonically reformatted source.
func (f *Formatter) Format(input, filename string) (string, error) {
	p := parser.NewParser(input, filename)
	prog, err := p.Parse()
	if err != nil {
		return "", fmt.Errorf("parse error: %w", err)
	}

	f.output.Reset()
	f.depth = 0
	f.formatStatements(prog.Statements)
	return f.output.String(), nil
}

func (f *Formatter) indent() string {
	return strings.Repeat(" ", f.depth*f.options.IndentSize)
}

func (f *Formatter) line(text string) {
	f.output.WriteString(f.indent())
	f.output.WriteString(text)
	f.output.WriteString("\n")
}

func (f *Formatter) formatStatements(stmts []parser.Statement) {
	for _, s := range stmts {
		f.formatStatement(s)
	}
}

func (f *Formatter) formatStatement(s parser.Statement) {
	switch n := s.(type) {
	case *parser.ExpressionStatement:
		f.line(formatExpr(n.Expr))

	case *parser.Label:
		f.line("Lbl " + n.Name)

	case *parser.Goto:
		if n.Name != "" {
			f.line("Goto " + n.Name)
		} else {
			f.line("Goto(" + formatExpr(n.TargetExpr) + ")")
		}

	case *parser.Return:
		f.line("Return")

	case *parser.MetaCommand:
		if n.Arg != nil {
			f.line("@" + n.Name + " " + formatExpr(n.Arg))
		} else {
			f.line("@" + n.Name)
		}

	case *parser.If:
		f.line("If " + formatExpr(n.Cond))
		f.depth++
		f.formatStatements(n.Then)
		f.depth--
		if n.Else != nil {
			f.line("Else")
			f.depth++
			f.formatStatements(n.Else)
			f.depth--
		}
		f.line("End")

	case *parser.While:
		f.line("While " + formatExpr(n.Cond))
		f.depth++
		f.formatStatements(n.Body)
		f.depth--
		f.line("End")

	case *parser.Repeat:
		f.line("Repeat " + formatExpr(n.Cond))
		f.depth++
		f.formatStatements(n.Body)
		f.depth--
		f.line("End")

	case *parser.For:
		f.line("For(" + formatExpr(n.CountExpr) + ")")
		f.depth++
		f.formatStatements(n.Body)
		f.depth--
		f.line("End")

	case *parser.ForRange:
		f.line("For(" + formatExpr(n.Target) + "," + formatExpr(n.Start) + "," + formatExpr(n.End) + ")")
		f.depth++
		f.formatStatements(n.Body)
		f.depth--
		f.line("End")
	}
}

// formatExpr re-serializes an expression to Axe surface syntax.
func formatExpr(e parser.Expression) string {
	switch n := e.(type) {
	case *parser.IntegerLiteral:
		return fmt.Sprintf("%d", n.Value)

	case *parser.VarRef:
		return string(n.Letter)

	case *parser.RegionRef:
		return n.Name

	case *parser.Pointer:
		inner := "{" + formatExpr(n.Address) + "}"
		if n.Width == 2 {
			return inner + "^^r"
		}
		return inner

	case *parser.Dereference:
		inner := "o^^" + formatExpr(n.Inner)
		if n.Width == 2 {
			return inner + "^^r"
		}
		return inner

	case *parser.LowByte:
		return "l^^" + formatExpr(n.Inner)

	case *parser.LabelRef:
		return "L^^ " + n.Name

	case *parser.Square:
		return formatExpr(n.Operand) + "^^2"

	case *parser.IncDec:
		if n.Delta > 0 {
			return formatExpr(n.Target) + "++"
		}
		return formatExpr(n.Target) + "--"

	case *parser.Assignment:
		return formatExpr(n.Value) + "->" + formatExpr(n.Target)

	case *parser.BinaryExpr:
		return formatExpr(n.Left) + binaryOpText(n.Op) + formatExpr(n.Right)

	case *parser.Command:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = formatExpr(a)
		}
		call := n.Name + "(" + strings.Join(args, ",") + ")"
		return call + strings.Repeat("^^r", n.Retarget)
	}
	return ""
}

func binaryOpText(op parser.Operator) string {
	switch op {
	case parser.OpAdd:
		return "+"
	case parser.OpSub:
		return "-"
	case parser.OpMul:
		return "*"
	case parser.OpDiv:
		return "/"
	case parser.OpMod:
		return "%"
	case parser.OpLT:
		return "<"
	case parser.OpLE:
		return "<="
	case parser.OpEQ:
		return "=="
	case parser.OpNE:
		return "!="
	case parser.OpGT:
		return ">"
	case parser.OpGE:
		return ">="
	}
	return "?"
}

// FormatString is a convenience wrapper using default options.
func FormatString(input, filename string) (string, error) {
	return NewFormatter(DefaultFormatOptions()).Format(input, filename)
}
