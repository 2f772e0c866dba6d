// Package tools provides ambient dev tooling for Axe source: a
// pretty-printer (format.go), a label cross-referencer (this file),
// and a small linter (lint.go) - adapted from the teacher's
// tools/xref.go symbol-table walker to Axe's label/Goto model instead
// of ARM's branch/load/store operand model.
package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/axe-run/axe-interpreter/parser"
)

// ReferenceType indicates how a label name is used.
type ReferenceType int

const (
	RefDefinition ReferenceType = iota // Lbl NAME
	RefGoto                            // Goto NAME
	RefComputed                        // L^^ NAME (used as a value)
)

func (r ReferenceType) String() string {
	switch r {
	case RefDefinition:
		return "definition"
	case RefGoto:
		return "goto"
	case RefComputed:
		return "label-ref"
	default:
		return "unknown"
	}
}

// Reference is a single occurrence of a label name.
type Reference struct {
	Type ReferenceType
	Line int
}

// Symbol collects every occurrence of one label name.
type Symbol struct {
	Name       string
	Definition *Reference
	References []*Reference
}

// XRefGenerator walks a parsed program collecting label symbols.
type XRefGenerator struct {
	symbols map[string]*Symbol
}

// NewXRefGenerator creates an empty generator.
func NewXRefGenerator() *XRefGenerator {
	return &XRefGenerator{symbols: make(map[string]*Symbol)}
}

// Generate parses input and collects its label cross-reference table.
func (x *XRefGenerator) Generate(input, filename string) (map[string]*Symbol, error) {
	p := parser.NewParser(input, filename)
	prog, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return x.GenerateFromProgram(prog), nil
}

// GenerateFromProgram collects the cross-reference table from an
// already-parsed program, for callers (like the linter) that parse
// once and run several analyses over the same AST.
func (x *XRefGenerator) GenerateFromProgram(prog *parser.Program) map[string]*Symbol {
	walkStatements(prog.Statements, func(s parser.Statement) {
		switch n := s.(type) {
		case *parser.Label:
			x.define(n.Name, n.Position.Line)
		case *parser.Goto:
			if n.Name != "" {
				x.reference(n.Name, RefGoto, n.Position.Line)
			} else if n.TargetExpr != nil {
				walkExpression(n.TargetExpr, x.collectExprRefs)
			}
		}
	})

	walkStatements(prog.Statements, func(s parser.Statement) {
		if es, ok := s.(*parser.ExpressionStatement); ok {
			walkExpression(es.Expr, x.collectExprRefs)
		}
		if ifs, ok := s.(*parser.If); ok {
			walkExpression(ifs.Cond, x.collectExprRefs)
		}
		if ws, ok := s.(*parser.While); ok {
			walkExpression(ws.Cond, x.collectExprRefs)
		}
		if rs, ok := s.(*parser.Repeat); ok {
			walkExpression(rs.Cond, x.collectExprRefs)
		}
		if fs, ok := s.(*parser.For); ok {
			walkExpression(fs.CountExpr, x.collectExprRefs)
		}
		if fr, ok := s.(*parser.ForRange); ok {
			walkExpression(fr.Target, x.collectExprRefs)
			walkExpression(fr.Start, x.collectExprRefs)
			walkExpression(fr.End, x.collectExprRefs)
		}
	})

	return x.symbols
}

func (x *XRefGenerator) collectExprRefs(e parser.Expression) {
	if lr, ok := e.(*parser.LabelRef); ok {
		x.reference(lr.Name, RefComputed, lr.Position.Line)
	}
}

func (x *XRefGenerator) ensure(name string) *Symbol {
	sym, ok := x.symbols[name]
	if !ok {
		sym = &Symbol{Name: name}
		x.symbols[name] = sym
	}
	return sym
}

func (x *XRefGenerator) define(name string, line int) {
	x.ensure(name).Definition = &Reference{Type: RefDefinition, Line: line}
}

func (x *XRefGenerator) reference(name string, kind ReferenceType, line int) {
	sym := x.ensure(name)
	sym.References = append(sym.References, &Reference{Type: kind, Line: line})
}

// walkStatements visits every statement in stmts and its nested
// control-flow bodies, depth first.
func walkStatements(stmts []parser.Statement, visit func(parser.Statement)) {
	for _, s := range stmts {
		visit(s)
		switch n := s.(type) {
		case *parser.If:
			walkStatements(n.Then, visit)
			walkStatements(n.Else, visit)
		case *parser.While:
			walkStatements(n.Body, visit)
		case *parser.Repeat:
			walkStatements(n.Body, visit)
		case *parser.For:
			walkStatements(n.Body, visit)
		case *parser.ForRange:
			walkStatements(n.Body, visit)
		}
	}
}

// walkExpression visits e and every expression nested within it.
func walkExpression(e parser.Expression, visit func(parser.Expression)) {
	if e == nil {
		return
	}
	visit(e)
	switch n := e.(type) {
	case *parser.BinaryExpr:
		walkExpression(n.Left, visit)
		walkExpression(n.Right, visit)
	case *parser.Pointer:
		walkExpression(n.Address, visit)
	case *parser.Dereference:
		walkExpression(n.Inner, visit)
	case *parser.LowByte:
		walkExpression(n.Inner, visit)
	case *parser.Assignment:
		walkExpression(n.Value, visit)
		walkExpression(n.Target, visit)
	case *parser.IncDec:
		walkExpression(n.Target, visit)
	case *parser.Square:
		walkExpression(n.Operand, visit)
	case *parser.Command:
		for _, a := range n.Args {
			walkExpression(a, visit)
		}
	}
}

// XRefReport renders a generator's symbols as a sorted text report.
type XRefReport struct {
	symbols []*Symbol
}

// NewXRefReport sorts symbols by name for deterministic output.
func NewXRefReport(symbols map[string]*Symbol) *XRefReport {
	sorted := make([]*Symbol, 0, len(symbols))
	for _, sym := range symbols {
		sorted = append(sorted, sym)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &XRefReport{symbols: sorted}
}

func (r *XRefReport) String() string {
	var sb strings.Builder

	sb.WriteString("Label Cross-Reference\n")
	sb.WriteString("======================\n\n")

	for _, sym := range r.symbols {
		sb.WriteString(fmt.Sprintf("%-24s", sym.Name))
		if sym.Definition != nil {
			sb.WriteString(fmt.Sprintf(" defined line %d", sym.Definition.Line))
		} else {
			sb.WriteString(" (undefined)")
		}
		sb.WriteString("\n")

		if len(sym.References) == 0 {
			sb.WriteString("  referenced: (never)\n")
		} else {
			lines := make([]string, len(sym.References))
			for i, ref := range sym.References {
				lines[i] = fmt.Sprintf("%d(%s)", ref.Line, ref.Type)
			}
			sb.WriteString(fmt.Sprintf("  referenced: %s\n", strings.Join(lines, ", ")))
		}
	}

	undefined, unused := 0, 0
	for _, sym := range r.symbols {
		if sym.Definition == nil {
			undefined++
		}
		if len(sym.References) == 0 {
			unused++
		}
	}

	sb.WriteString("\nSummary\n=======\n")
	sb.WriteString(fmt.Sprintf("Total labels:  %d\n", len(r.symbols)))
	sb.WriteString(fmt.Sprintf("Undefined:     %d\n", undefined))
	sb.WriteString(fmt.Sprintf("Unused:        %d\n", unused))

	return sb.String()
}

// GenerateXRef is a convenience wrapper producing a text report.
func GenerateXRef(input, filename string) (string, error) {
	gen := NewXRefGenerator()
	symbols, err := gen.Generate(input, filename)
	if err != nil {
		return "", err
	}
	return NewXRefReport(symbols).String(), nil
}

// GetUndefinedLabels returns labels that are referenced but never
// declared with Lbl.
func (x *XRefGenerator) GetUndefinedLabels() []*Symbol {
	var undefined []*Symbol
	for _, sym := range x.symbols {
		if sym.Definition == nil && len(sym.References) > 0 {
			undefined = append(undefined, sym)
		}
	}
	sort.Slice(undefined, func(i, j int) bool { return undefined[i].Name < undefined[j].Name })
	return undefined
}

// GetUnusedLabels returns labels declared with Lbl but never jumped to.
func (x *XRefGenerator) GetUnusedLabels() []*Symbol {
	var unused []*Symbol
	for _, sym := range x.symbols {
		if sym.Definition != nil && len(sym.References) == 0 {
			unused = append(unused, sym)
		}
	}
	sort.Slice(unused, func(i, j int) bool { return unused[i].Name < unused[j].Name })
	return unused
}
