package tools

import (
	"fmt"
	"sort"

	"github.com/axe-run/axe-interpreter/parser"
)

// LintLevel is the severity of a lint finding.
type LintLevel int

const (
	LintError LintLevel = iota
	LintWarning
	LintInfo
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	default:
		return "info"
	}
}

// LintIssue is a single finding, with a stable code so callers can
// filter or suppress by category.
type LintIssue struct {
	Level   LintLevel
	Line    int
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("line %d: %s: %s [%s]", i.Line, i.Level, i.Message, i.Code)
}

// LintOptions controls which checks run.
type LintOptions struct {
	CheckUndefinedLabels bool
	CheckUnusedLabels    bool
	CheckUnreachableCode bool
	CheckEmptyBlocks     bool
}

// DefaultLintOptions enables every check.
func DefaultLintOptions() *LintOptions {
	return &LintOptions{
		CheckUndefinedLabels: true,
		CheckUnusedLabels:    true,
		CheckUnreachableCode: true,
		CheckEmptyBlocks:     true,
	}
}

// Linter finds common mistakes in an Axe program that still parses
// cleanly but is likely wrong: Goto to a label that's never declared,
// a declared label nothing ever jumps to, code following a Return or
// @EXIT within the same block, and empty If/While/Repeat/For bodies.
type Linter struct {
	options *LintOptions
	issues  []*LintIssue
}

// NewLinter creates a linter with the given options (nil for defaults).
func NewLinter(options *LintOptions) *Linter {
	if options == nil {
		options = DefaultLintOptions()
	}
	return &Linter{options: options}
}

// Lint parses input and returns every finding, sorted by line.
func (l *Linter) Lint(input, filename string) ([]*LintIssue, error) {
	p := parser.NewParser(input, filename)
	prog, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	l.issues = nil

	if l.options.CheckUndefinedLabels || l.options.CheckUnusedLabels {
		l.checkLabels(prog)
	}
	if l.options.CheckUnreachableCode {
		l.checkUnreachable(prog.Statements)
	}
	if l.options.CheckEmptyBlocks {
		l.checkEmptyBlocks(prog.Statements)
	}

	sort.Slice(l.issues, func(i, j int) bool { return l.issues[i].Line < l.issues[j].Line })
	return l.issues, nil
}

func (l *Linter) checkLabels(prog *parser.Program) {
	gen := NewXRefGenerator()
	gen.GenerateFromProgram(prog)

	if l.options.CheckUndefinedLabels {
		for _, sym := range gen.GetUndefinedLabels() {
			for _, ref := range sym.References {
				l.add(LintError, ref.Line, fmt.Sprintf("Goto references undefined label %q", sym.Name), "UNDEF_LABEL")
			}
		}
	}
	if l.options.CheckUnusedLabels {
		for _, sym := range gen.GetUnusedLabels() {
			l.add(LintWarning, sym.Definition.Line, fmt.Sprintf("label %q is never jumped to", sym.Name), "UNUSED_LABEL")
		}
	}
}

// checkUnreachable flags the first statement following each Return or
// @EXIT within the same statement list (later statements in the same
// run are not flagged separately).
func (l *Linter) checkUnreachable(stmts []parser.Statement) {
	terminated := false
	for _, s := range stmts {
		if terminated {
			l.add(LintWarning, s.Pos().Line, "unreachable code after Return/@EXIT", "UNREACHABLE_CODE")
			terminated = false
		}
		switch n := s.(type) {
		case *parser.Return:
			terminated = true
		case *parser.MetaCommand:
			if n.Name == "EXIT" {
				terminated = true
			}
		case *parser.If:
			l.checkUnreachable(n.Then)
			l.checkUnreachable(n.Else)
		case *parser.While:
			l.checkUnreachable(n.Body)
		case *parser.Repeat:
			l.checkUnreachable(n.Body)
		case *parser.For:
			l.checkUnreachable(n.Body)
		case *parser.ForRange:
			l.checkUnreachable(n.Body)
		}
	}
}

// checkEmptyBlocks flags a control-flow body with no statements, a
// near-certain typo (an empty If arm, a While nobody will ever break
// out of productively, etc).
func (l *Linter) checkEmptyBlocks(stmts []parser.Statement) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *parser.If:
			if len(n.Then) == 0 {
				l.add(LintInfo, n.Position.Line, "If block is empty", "EMPTY_BLOCK")
			}
			l.checkEmptyBlocks(n.Then)
			l.checkEmptyBlocks(n.Else)
		case *parser.While:
			if len(n.Body) == 0 {
				l.add(LintWarning, n.Position.Line, "While body is empty (likely infinite loop)", "EMPTY_BLOCK")
			}
			l.checkEmptyBlocks(n.Body)
		case *parser.Repeat:
			if len(n.Body) == 0 {
				l.add(LintInfo, n.Position.Line, "Repeat body is empty", "EMPTY_BLOCK")
			}
			l.checkEmptyBlocks(n.Body)
		case *parser.For:
			if len(n.Body) == 0 {
				l.add(LintInfo, n.Position.Line, "For body is empty", "EMPTY_BLOCK")
			}
			l.checkEmptyBlocks(n.Body)
		case *parser.ForRange:
			if len(n.Body) == 0 {
				l.add(LintInfo, n.Position.Line, "For body is empty", "EMPTY_BLOCK")
			}
			l.checkEmptyBlocks(n.Body)
		}
	}
}

func (l *Linter) add(level LintLevel, line int, message, code string) {
	l.issues = append(l.issues, &LintIssue{Level: level, Line: line, Message: message, Code: code})
}

// LintString is a convenience wrapper using default options.
func LintString(input, filename string) ([]*LintIssue, error) {
	return NewLinter(DefaultLintOptions()).Lint(input, filename)
}
