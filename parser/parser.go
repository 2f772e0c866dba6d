package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/axe-run/axe-interpreter/memmap"
)

// ParserContext carries the handful of pieces of state a single parse
// needs to thread through nested statement parsing, kept on an
// explicit struct (rather than package-level globals) so NewParser
// always starts from a clean slate. Mirrors the teacher's per-Parser
// symbolTable/macroTable fields, scoped down to what Axe's grammar
// actually needs.
type ParserContext struct {
	DebugLevel int
}

// reservedWords is the set of canonical (case-sensitive) keyword
// spellings; keywordAliases folds the two case-insensitive exceptions
// spec.md calls out (getKey/GetKey, pxl-Test/Pxl-Test) onto their
// canonical form.
var reservedWords = map[string]bool{
	"If": true, "Else": true, "End": true,
	"While": true, "Repeat": true, "For": true,
	"Lbl": true, "Goto": true, "Return": true,
	"Disp": true, "Pause": true, "Horizontal": true, "Vertical": true,
}

var keywordAliases = map[string]string{
	"getkey":    "GetKey",
	"pxl-test":  "Pxl-Test",
}

func canonicalKeyword(lit string) string {
	if canon, ok := keywordAliases[strings.ToLower(lit)]; ok {
		return canon
	}
	return lit
}

// Parser parses Axe source into a *Program.
type Parser struct {
	lexer        *Lexer
	tokens       []Token
	pos          int
	currentToken Token
	peekToken    Token
	errors       *ErrorList
	ctx          *ParserContext
}

// NewParser creates a new parser for the given input.
func NewParser(input, filename string) *Parser {
	lexer := NewLexer(input, filename)
	p := &Parser{
		lexer:  lexer,
		tokens: make([]Token, 0),
		errors: &ErrorList{},
		ctx:    &ParserContext{},
	}

	p.tokens = lexer.TokenizeAll()
	for _, err := range lexer.Errors().Errors {
		p.errors.AddError(err)
	}

	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.currentToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
	} else {
		p.peekToken = Token{Type: TokenEOF, Literal: "", Pos: p.currentToken.Pos}
	}
}

// skipSeparators skips newline and colon tokens; spec.md's "NEWLINE
// and COLON collapse: consecutive separators behave as one" means a
// run of either is equivalent to a single statement break.
func (p *Parser) skipSeparators() {
	for p.currentToken.Type == TokenNewline || p.currentToken.Type == TokenColon {
		p.nextToken()
	}
}

func (p *Parser) addError(pos Position, format string, args ...interface{}) {
	p.errors.AddError(NewError(pos, ErrorSyntax, fmt.Sprintf(format, args...)))
}

// Errors returns the parser's accumulated error list (lex errors
// merged in at construction, plus any syntax errors found while
// parsing).
func (p *Parser) Errors() *ErrorList {
	return p.errors
}

// Parse parses the entire program.
func (p *Parser) Parse() (*Program, error) {
	prog := &Program{Position: p.currentToken.Pos}
	prog.Statements = p.parseStatements()
	if p.errors.HasErrors() {
		return prog, p.errors
	}
	return prog, nil
}

// parseStatements parses statements until EOF or a block terminator
// (End/Else) is seen at statement-start position, without consuming
// the terminator.
func (p *Parser) parseStatements() []Statement {
	var stmts []Statement
	for {
		p.skipSeparators()
		if p.currentToken.Type == TokenEOF {
			break
		}
		if p.atBlockTerminator() {
			break
		}
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if !p.atStatementEnd() && p.currentToken.Type != TokenEOF && !p.atBlockTerminator() {
			p.addError(p.currentToken.Pos, "expected statement separator, got %s", p.currentToken.Type)
			p.nextToken()
		}
	}
	return stmts
}

func (p *Parser) atStatementEnd() bool {
	return p.currentToken.Type == TokenNewline || p.currentToken.Type == TokenColon
}

func (p *Parser) atBlockTerminator() bool {
	if p.currentToken.Type != TokenIdentifier {
		return false
	}
	return p.currentToken.Literal == "End" || p.currentToken.Literal == "Else"
}

func (p *Parser) parseStatement() Statement {
	tok := p.currentToken

	if tok.Type == TokenMeta {
		return p.parseMetaCommand()
	}

	if tok.Type == TokenIdentifier {
		switch tok.Literal {
		case "If":
			return p.parseIf()
		case "While":
			return p.parseWhile()
		case "Repeat":
			return p.parseRepeat()
		case "For":
			return p.parseFor()
		case "Lbl":
			return p.parseLabel()
		case "Goto":
			return p.parseGoto()
		case "Return":
			p.nextToken()
			return &Return{Position: tok.Pos}
		case "Disp":
			return p.parseBareArgsCommand("Disp")
		case "Pause":
			return p.parseBareArgsCommand("Pause")
		case "Horizontal":
			return p.parseShift("Horizontal", "ShiftBufferHorizontal")
		case "Vertical":
			return p.parseShift("Vertical", "ShiftBufferVertical")
		}
	}

	expr := p.parseExpression()
	return &ExpressionStatement{Expr: expr, Position: tok.Pos}
}

func (p *Parser) parseMetaCommand() Statement {
	tok := p.currentToken
	pos := tok.Pos
	name := tok.Literal
	p.nextToken()

	var arg Expression
	if name == "DEBUG" {
		arg = p.parseExpression()
	}
	return &MetaCommand{Name: name, Arg: arg, Position: pos}
}

func (p *Parser) parseLabel() Statement {
	pos := p.currentToken.Pos
	p.nextToken() // consume Lbl
	if p.currentToken.Type != TokenIdentifier {
		p.addError(p.currentToken.Pos, "expected label name after Lbl")
		return &Label{Name: "", Position: pos}
	}
	name := p.currentToken.Literal
	if len(name) > 8 {
		p.addError(p.currentToken.Pos, "label name %q exceeds 8 characters", name)
	}
	p.nextToken()
	return &Label{Name: name, Position: pos}
}

func (p *Parser) parseGoto() Statement {
	pos := p.currentToken.Pos
	p.nextToken() // consume Goto
	if p.currentToken.Type == TokenLParen {
		p.nextToken()
		expr := p.parseExpression()
		p.expect(TokenRParen)
		return &Goto{TargetExpr: expr, Position: pos}
	}
	if p.currentToken.Type != TokenIdentifier {
		p.addError(p.currentToken.Pos, "expected label name or '(' after Goto")
		return &Goto{Position: pos}
	}
	name := p.currentToken.Literal
	p.nextToken()
	return &Goto{Name: name, Position: pos}
}

// parseBareArgsCommand parses the no-parens Axe grammar for `Disp
// expr[,expr...]` / `Pause expr`: a trailing comma-separated argument
// list with no enclosing parentheses, per spec.md §3/§4.2. `Disp(A)`
// still works the same way, since a leading '(' is just parsed as a
// parenthesized first argument.
func (p *Parser) parseBareArgsCommand(name string) Statement {
	pos := p.currentToken.Pos
	p.nextToken() // consume the command name
	var args []Expression
	if !p.atStatementEnd() && p.currentToken.Type != TokenEOF && !p.atBlockTerminator() {
		args = append(args, p.parseExpression())
		for p.currentToken.Type == TokenComma {
			p.nextToken()
			args = append(args, p.parseExpression())
		}
	}
	cmd := &Command{Name: name, Args: args, Position: pos}
	p.consumeRetarget(cmd)
	return &ExpressionStatement{Expr: cmd, Position: pos}
}

// parseShift parses `Horizontal+`/`Horizontal-`/`Vertical+`/`Vertical-`
// (spec.md §6's reserved words), with an optional trailing `(buf)`
// custom-buffer argument in parens and/or a `^^r` back-buffer retarget
// suffix, into the ShiftBufferHorizontal/Vertical command the driver
// dispatches on.
func (p *Parser) parseShift(name, cmdName string) Statement {
	pos := p.currentToken.Pos
	p.nextToken() // consume Horizontal/Vertical

	var dir int64
	switch p.currentToken.Type {
	case TokenPlus:
		dir = 1
		p.nextToken()
	case TokenMinus:
		dir = -1
		p.nextToken()
	default:
		p.addError(p.currentToken.Pos, "expected '+' or '-' after %s", name)
	}

	args := []Expression{&IntegerLiteral{Value: dir, Position: pos}}
	if p.currentToken.Type == TokenLParen {
		p.nextToken()
		for p.currentToken.Type != TokenRParen && p.currentToken.Type != TokenEOF {
			args = append(args, p.parseExpression())
			if p.currentToken.Type == TokenComma {
				p.nextToken()
			} else {
				break
			}
		}
		p.expect(TokenRParen)
	}

	cmd := &Command{Name: cmdName, Args: args, Position: pos}
	p.consumeRetarget(cmd)
	return &ExpressionStatement{Expr: cmd, Position: pos}
}

// consumeRetarget consumes any number of trailing `^^r` modifiers
// following a command call, recording the count on cmd.Retarget:
// drawing commands treat a single `^^r` as a boolean L6-vs-L3 switch
// (vm's resolveBuffer), while DispGraph adds the count to 2 to get
// the gray-level count (none: 2, `^^r`: 3, `^^r^^r`: 4), per spec.md §4.2.
func (p *Parser) consumeRetarget(cmd *Command) {
	for p.currentToken.Type == TokenCaretR {
		p.nextToken()
		cmd.Retarget++
	}
}

func (p *Parser) parseIf() Statement {
	pos := p.currentToken.Pos
	p.nextToken() // consume If
	cond := p.parseExpression()
	thenBody := p.parseStatements()

	var elseBody []Statement
	if p.currentToken.Type == TokenIdentifier && p.currentToken.Literal == "Else" {
		p.nextToken()
		elseBody = p.parseStatements()
	}
	p.expectKeyword("End")
	return &If{Cond: cond, Then: thenBody, Else: elseBody, Position: pos}
}

func (p *Parser) parseWhile() Statement {
	pos := p.currentToken.Pos
	p.nextToken() // consume While
	cond := p.parseExpression()
	body := p.parseStatements()
	p.expectKeyword("End")
	return &While{Cond: cond, Body: body, Position: pos}
}

func (p *Parser) parseRepeat() Statement {
	pos := p.currentToken.Pos
	p.nextToken() // consume Repeat
	cond := p.parseExpression()
	body := p.parseStatements()
	p.expectKeyword("End")
	return &Repeat{Cond: cond, Body: body, Position: pos}
}

func (p *Parser) parseFor() Statement {
	pos := p.currentToken.Pos
	p.nextToken() // consume For
	p.expect(TokenLParen)
	first := p.parseExpression()

	if p.currentToken.Type == TokenComma {
		// Full form: For(ptr, start, end), increment 1, inclusive end.
		p.nextToken()
		start := p.parseExpression()
		p.expect(TokenComma)
		end := p.parseExpression()
		p.expect(TokenRParen)
		body := p.parseStatements()
		p.expectKeyword("End")
		return &ForRange{Target: first, Start: start, End: end, Body: body, Position: pos}
	}

	p.expect(TokenRParen)
	body := p.parseStatements()
	p.expectKeyword("End")
	return &For{CountExpr: first, Body: body, Position: pos}
}

func (p *Parser) expect(t TokenType) {
	if p.currentToken.Type != t {
		p.addError(p.currentToken.Pos, "expected %s, got %s", t, p.currentToken.Type)
		return
	}
	p.nextToken()
}

func (p *Parser) expectKeyword(kw string) {
	if p.currentToken.Type != TokenIdentifier || p.currentToken.Literal != kw {
		p.addError(p.currentToken.Pos, "expected %q, got %q", kw, p.currentToken.Literal)
		return
	}
	p.nextToken()
}

// parseExpression parses a flat, strictly left-associative chain of
// binary operators (Axe has no operator precedence, per spec.md
// §4.2), then folds any trailing `-> target` assignment chain onto
// the result.
func (p *Parser) parseExpression() Expression {
	left := p.parseBinaryChain()

	for p.currentToken.Type == TokenArrow {
		pos := p.currentToken.Pos
		p.nextToken()
		target := p.parsePrimary()
		left = &Assignment{Value: left, Target: target, Position: pos}
	}
	return left
}

func (p *Parser) parseBinaryChain() Expression {
	left := p.parseUnary()
	for {
		op, ok := binaryOpFor(p.currentToken.Type)
		if !ok {
			break
		}
		pos := p.currentToken.Pos
		p.nextToken()
		right := p.parseUnary()
		left = &BinaryExpr{Left: left, Op: op, Right: right, Position: pos}
	}
	return left
}

func binaryOpFor(t TokenType) (Operator, bool) {
	switch t {
	case TokenPlus:
		return OpAdd, true
	case TokenMinus:
		return OpSub, true
	case TokenStar:
		return OpMul, true
	case TokenSlash:
		return OpDiv, true
	case TokenPercent:
		return OpMod, true
	case TokenLT:
		return OpLT, true
	case TokenLE:
		return OpLE, true
	case TokenEQ:
		return OpEQ, true
	case TokenNE:
		return OpNE, true
	case TokenGT:
		return OpGT, true
	case TokenGE:
		return OpGE, true
	}
	return 0, false
}

// parseUnary handles a leading unary minus, rewritten as `0 - expr`
// per spec.md, and otherwise falls through to a postfix-decorated
// primary.
func (p *Parser) parseUnary() Expression {
	if p.currentToken.Type == TokenMinus {
		pos := p.currentToken.Pos
		p.nextToken()
		operand := p.parseUnary()
		zero := &IntegerLiteral{Value: 0, Position: pos}
		return &BinaryExpr{Left: zero, Op: OpSub, Right: operand, Position: pos}
	}
	return p.parsePostfix()
}

// parsePostfix wraps a primary with any trailing ++, --, or ^^2.
func (p *Parser) parsePostfix() Expression {
	expr := p.parsePrimary()
	for {
		switch p.currentToken.Type {
		case TokenIncr:
			pos := p.currentToken.Pos
			p.nextToken()
			expr = &IncDec{Target: expr, Delta: 1, Position: pos}
		case TokenDecr:
			pos := p.currentToken.Pos
			p.nextToken()
			expr = &IncDec{Target: expr, Delta: -1, Position: pos}
		case TokenCaret2:
			pos := p.currentToken.Pos
			p.nextToken()
			expr = &Square{Operand: expr, Position: pos}
		case TokenCaretR:
			cmd, ok := expr.(*Command)
			if !ok {
				return expr
			}
			p.consumeRetarget(cmd)
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() Expression {
	tok := p.currentToken
	pos := tok.Pos

	switch tok.Type {
	case TokenNumber:
		p.nextToken()
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.addError(pos, "invalid integer literal %q", tok.Literal)
		}
		return &IntegerLiteral{Value: v, Position: pos}

	case TokenLParen:
		p.nextToken()
		inner := p.parseExpression()
		p.expect(TokenRParen)
		return inner

	case TokenLBrace:
		p.nextToken()
		addr := p.parseExpression()
		p.expect(TokenRBrace)
		width := 1
		if p.currentToken.Type == TokenCaretR {
			p.nextToken()
			width = 2
		}
		return &Pointer{Address: addr, Width: width, Position: pos}

	case TokenDeref:
		p.nextToken()
		inner := p.parsePostfix()
		width := 1
		if p.currentToken.Type == TokenCaretR {
			p.nextToken()
			width = 2
		}
		return &Dereference{Inner: inner, Width: width, Position: pos}

	case TokenLowCaret:
		p.nextToken()
		// `L^^ NAME` (label index) vs `l^^ptr` (low-byte modifier):
		// disambiguate on whether a bare short identifier follows
		// that isn't itself a pointer (a variable letter or a region
		// name) or the start of a command call.
		if p.currentToken.Type == TokenIdentifier && p.peekToken.Type != TokenLParen {
			name := p.currentToken.Literal
			_, isRegion := memmap.RegionOffset(name)
			isVar := len(name) == 1 && memmap.IsVarLetter(name[0])
			if len(name) <= 8 && !isVar && !isRegion {
				p.nextToken()
				return &LabelRef{Name: name, Position: pos}
			}
		}
		inner := p.parsePostfix()
		return &LowByte{Inner: inner, Position: pos}

	case TokenIdentifier:
		return p.parseIdentifierExpr()

	default:
		p.addError(pos, "unexpected token %s in expression", tok.Type)
		p.nextToken()
		return &IntegerLiteral{Value: 0, Position: pos}
	}
}

func (p *Parser) parseIdentifierExpr() Expression {
	tok := p.currentToken
	pos := tok.Pos
	name := canonicalKeyword(tok.Literal)

	if len(tok.Literal) == 1 && memmap.IsVarLetter(tok.Literal[0]) {
		p.nextToken()
		return &VarRef{Letter: tok.Literal[0], Position: pos}
	}

	if _, ok := memmap.RegionOffset(tok.Literal); ok {
		p.nextToken()
		return &RegionRef{Name: tok.Literal, Position: pos}
	}

	p.nextToken()
	if p.currentToken.Type == TokenLParen {
		p.nextToken()
		var args []Expression
		for p.currentToken.Type != TokenRParen && p.currentToken.Type != TokenEOF {
			args = append(args, p.parseExpression())
			if p.currentToken.Type == TokenComma {
				p.nextToken()
			} else {
				break
			}
		}
		p.expect(TokenRParen)
		return &Command{Name: name, Args: args, Position: pos}
	}

	// Bare command with no arguments, e.g. GetKey, DiagnosticOn.
	return &Command{Name: name, Args: nil, Position: pos}
}
