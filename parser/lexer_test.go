package parser_test

import (
	"testing"

	"github.com/axe-run/axe-interpreter/parser"
)

func TestLexerBasicTokens(t *testing.T) {
	lexer := parser.NewLexer("5->A", "<test>")

	expected := []parser.TokenType{
		parser.TokenNumber,
		parser.TokenArrow,
		parser.TokenIdentifier,
		parser.TokenEOF,
	}
	for i, want := range expected {
		tok := lexer.NextToken()
		if tok.Type != want {
			t.Errorf("token %d: expected %v, got %v (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestLexerPxlHyphenatedCommand(t *testing.T) {
	lexer := parser.NewLexer("Pxl-On(1,2)", "<test>")
	tok := lexer.NextToken()
	if tok.Type != parser.TokenIdentifier || tok.Literal != "Pxl-On" {
		t.Errorf("expected identifier \"Pxl-On\", got %v %q", tok.Type, tok.Literal)
	}
}

func TestLexerTwoCharOperators(t *testing.T) {
	tests := []struct {
		input string
		want  parser.TokenType
	}{
		{"++", parser.TokenIncr},
		{"--", parser.TokenDecr},
		{"->", parser.TokenArrow},
		{"<=", parser.TokenLE},
		{"==", parser.TokenEQ},
		{"!=", parser.TokenNE},
		{">=", parser.TokenGE},
		{"^^2", parser.TokenCaret2},
		{"^^r", parser.TokenCaretR},
	}
	for _, tt := range tests {
		lexer := parser.NewLexer(tt.input, "<test>")
		tok := lexer.NextToken()
		if tok.Type != tt.want {
			t.Errorf("input %q: expected %v, got %v", tt.input, tt.want, tok.Type)
		}
	}
}

func TestLexerLowCaretAndDeref(t *testing.T) {
	lexer := parser.NewLexer("l^^A o^^A", "<test>")
	tok := lexer.NextToken()
	if tok.Type != parser.TokenLowCaret {
		t.Errorf("expected l^^ token, got %v", tok.Type)
	}
	lexer.NextToken() // A
	tok = lexer.NextToken()
	if tok.Type != parser.TokenDeref {
		t.Errorf("expected o^^ token, got %v", tok.Type)
	}
}

func TestLexerSingleEqualsIsAnError(t *testing.T) {
	lexer := parser.NewLexer("A=1", "<test>")
	lexer.TokenizeAll()
	if !lexer.Errors().HasErrors() {
		t.Error("expected single '=' to be a lex error")
	}
}

func TestLexerLineComment(t *testing.T) {
	lexer := parser.NewLexer(".this is a comment\n5->A", "<test>")
	tok := lexer.NextToken()
	if tok.Type != parser.TokenNewline {
		t.Errorf("expected the comment line's NEWLINE separator, got %v %q", tok.Type, tok.Literal)
	}
	tok = lexer.NextToken()
	if tok.Type != parser.TokenNumber || tok.Literal != "5" {
		t.Errorf("expected comment to be skipped, got %v %q", tok.Type, tok.Literal)
	}
}

func TestLexerBlockComment(t *testing.T) {
	src := "...\nstray junk that would otherwise not lex\n...\n5->A"
	lexer := parser.NewLexer(src, "<test>")
	tok := lexer.NextToken()
	if tok.Type != parser.TokenNewline {
		t.Errorf("expected the closing marker line's NEWLINE separator, got %v %q", tok.Type, tok.Literal)
	}
	tok = lexer.NextToken()
	if tok.Type != parser.TokenNumber || tok.Literal != "5" {
		t.Errorf("expected block comment to be skipped, got %v %q", tok.Type, tok.Literal)
	}
}

func TestLexerMetaCommand(t *testing.T) {
	lexer := parser.NewLexer("@EXIT", "<test>")
	tok := lexer.NextToken()
	if tok.Type != parser.TokenMeta || tok.Literal != "EXIT" {
		t.Errorf("expected meta command EXIT, got %v %q", tok.Type, tok.Literal)
	}
}

func TestLexerTokenizeAllEndsWithEOF(t *testing.T) {
	lexer := parser.NewLexer("1->A", "<test>")
	tokens := lexer.TokenizeAll()
	if tokens[len(tokens)-1].Type != parser.TokenEOF {
		t.Error("expected TokenizeAll to end with EOF")
	}
}
