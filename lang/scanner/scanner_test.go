package scanner_test

import (
	"testing"

	"github.com/mna/embervm/lang/scanner"
	"github.com/mna/embervm/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(src string) []scanner.Token {
	var s scanner.Scanner
	s.Init(src)
	var toks []scanner.Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){};,.+-*/ ! != = == < <= > >=")
	want := []token.Token{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMI,
		token.COMMA, token.DOT, token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.BANG, token.BANG_EQ, token.EQ, token.EQ_EQ, token.LT, token.LT_EQ,
		token.GT, token.GT_EQ, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, tok := range toks {
		require.Equal(t, want[i], tok.Kind, "token %d", i)
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll("var x = foo and bar")
	want := []token.Token{token.VAR, token.IDENT, token.EQ, token.IDENT, token.AND, token.IDENT, token.EOF}
	require.Len(t, toks, len(want))
	for i, tok := range toks {
		require.Equal(t, want[i], tok.Kind, "token %d", i)
	}
}

func TestScanNumber(t *testing.T) {
	toks := scanAll("123 1.5 1.")
	require.Equal(t, token.NUMBER, toks[0].Kind)
	require.Equal(t, "123", toks[0].Lexeme)
	require.Equal(t, token.NUMBER, toks[1].Kind)
	require.Equal(t, "1.5", toks[1].Lexeme)
	// trailing dot without a following digit is not part of the number
	require.Equal(t, token.NUMBER, toks[2].Kind)
	require.Equal(t, "1", toks[2].Lexeme)
	require.Equal(t, token.DOT, toks[3].Kind)
}

func TestScanString(t *testing.T) {
	toks := scanAll(`"hello world"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "hello world", toks[0].StringValue())
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"hello`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
	require.Equal(t, "Unterminated string.", toks[0].Message)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll("@")
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
	require.Equal(t, "Unexpected character.", toks[0].Message)
}

func TestScanComment(t *testing.T) {
	toks := scanAll("1 // a comment\n2")
	require.Equal(t, token.NUMBER, toks[0].Kind)
	require.Equal(t, "1", toks[0].Lexeme)
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, token.NUMBER, toks[1].Kind)
	require.Equal(t, "2", toks[1].Lexeme)
	require.Equal(t, 2, toks[1].Line)
}

func TestScanLineCounting(t *testing.T) {
	toks := scanAll("1\n2\n\n3")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 4, toks[2].Line)
}

func TestScanAtEOFRepeats(t *testing.T) {
	var s scanner.Scanner
	s.Init("")
	require.Equal(t, token.EOF, s.Next().Kind)
	require.Equal(t, token.EOF, s.Next().Kind)
}
