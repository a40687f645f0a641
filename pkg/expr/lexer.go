// Package expr implements EcoLang's closed expression grammar: a
// purpose-built lexer, parser, and evaluator over an explicit node set.
// Nothing outside this grammar is reachable from evaluated code; the
// builtin whitelist in builtins.go is the security boundary.
package expr

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TokenType identifies the type of an expression token.
type TokenType int

const (
	// Keywords
	TokAnd TokenType = iota
	TokOr
	TokNot
	TokTrue
	TokFalse

	// Literals
	TokIntLit
	TokFloatLit
	TokStringLit

	// Identifiers
	TokIdent

	// Punctuation
	TokLParen // (
	TokRParen // )
	TokComma  // ,

	// Comparison operators
	TokEqEq   // ==
	TokBangEq // !=
	TokLtEq   // <=
	TokGtEq   // >=
	TokLt     // <
	TokGt     // >

	// Arithmetic operators
	TokPlus       // +
	TokMinus      // -
	TokStarStar   // **
	TokStar       // *
	TokSlashSlash // //
	TokSlash      // /
	TokPercent    // %

	// Special
	TokEOF
)

// Token represents a single expression token. Col is the 1-based column
// of the token within the expression text.
type Token struct {
	Type  TokenType
	Value string
	Col   int
}

var keywords = map[string]TokenType{
	"and":   TokAnd,
	"or":    TokOr,
	"not":   TokNot,
	"true":  TokTrue,
	"false": TokFalse,
}

type scanner struct {
	src string
	pos int
	col int
}

// Tokenize splits an expression string into tokens. The returned slice
// always ends with a TokEOF token.
func Tokenize(src string) ([]Token, *Error) {
	s := &scanner{src: src, col: 1}
	var toks []Token
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == TokEOF {
			return toks, nil
		}
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.src) {
		return 0
	}
	return s.src[p]
}

func (s *scanner) advance() byte {
	ch := s.src[s.pos]
	s.pos++
	s.col++
	return ch
}

func (s *scanner) next() (Token, *Error) {
	for !s.atEnd() && (s.peek() == ' ' || s.peek() == '\t') {
		s.advance()
	}
	if s.atEnd() {
		return Token{Type: TokEOF, Col: s.col}, nil
	}

	start := s.col
	ch := s.peek()

	switch {
	case isDigit(ch):
		return s.scanNumber(), nil
	case ch == '"' || ch == '\'':
		return s.scanString()
	case isAlpha(ch):
		return s.scanIdentOrKeyword(), nil
	}

	s.advance()
	two := func(next byte, t TokenType, v string) (Token, bool) {
		if s.peek() == next {
			s.advance()
			return Token{Type: t, Value: v, Col: start}, true
		}
		return Token{}, false
	}

	switch ch {
	case '(':
		return Token{Type: TokLParen, Value: "(", Col: start}, nil
	case ')':
		return Token{Type: TokRParen, Value: ")", Col: start}, nil
	case ',':
		return Token{Type: TokComma, Value: ",", Col: start}, nil
	case '+':
		return Token{Type: TokPlus, Value: "+", Col: start}, nil
	case '-':
		return Token{Type: TokMinus, Value: "-", Col: start}, nil
	case '%':
		return Token{Type: TokPercent, Value: "%", Col: start}, nil
	case '*':
		if tok, ok := two('*', TokStarStar, "**"); ok {
			return tok, nil
		}
		return Token{Type: TokStar, Value: "*", Col: start}, nil
	case '/':
		if tok, ok := two('/', TokSlashSlash, "//"); ok {
			return tok, nil
		}
		return Token{Type: TokSlash, Value: "/", Col: start}, nil
	case '=':
		if tok, ok := two('=', TokEqEq, "=="); ok {
			return tok, nil
		}
		return Token{}, syntaxErr("Unexpected '='; use '==' for comparison", start)
	case '!':
		if tok, ok := two('=', TokBangEq, "!="); ok {
			return tok, nil
		}
		return Token{}, syntaxErr("Unexpected '!'; use 'not' for negation", start)
	case '<':
		if tok, ok := two('=', TokLtEq, "<="); ok {
			return tok, nil
		}
		return Token{Type: TokLt, Value: "<", Col: start}, nil
	case '>':
		if tok, ok := two('=', TokGtEq, ">="); ok {
			return tok, nil
		}
		return Token{Type: TokGt, Value: ">", Col: start}, nil
	}

	return Token{}, syntaxErr(fmt.Sprintf("Unexpected character %q in expression", ch), start)
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func (s *scanner) scanNumber() Token {
	start := s.col
	startPos := s.pos
	isFloat := false

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	if !s.atEnd() && s.peek() == '.' && isDigit(s.peekAt(1)) {
		isFloat = true
		s.advance()
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	text := s.src[startPos:s.pos]
	typ := TokIntLit
	if isFloat {
		typ = TokFloatLit
	}
	return Token{Type: typ, Value: text, Col: start}
}

func (s *scanner) scanString() (Token, *Error) {
	start := s.col
	quote := s.advance()

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if ch == quote {
			s.advance()
			return Token{Type: TokStringLit, Value: buf.String(), Col: start}, nil
		}
		if ch == '\\' {
			s.advance()
			if s.atEnd() {
				return Token{}, syntaxErr("Unterminated string escape", start)
			}
			esc := s.advance()
			switch esc {
			case '"', '\'', '\\':
				buf.WriteByte(esc)
			case 'n':
				buf.WriteByte('\n')
			case 't':
				buf.WriteByte('\t')
			default:
				return Token{}, syntaxErr(fmt.Sprintf("Invalid escape character: \\%c", esc), start)
			}
			continue
		}
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if r == utf8.RuneError && size == 1 {
			return Token{}, syntaxErr("Invalid UTF-8 character in string", start)
		}
		buf.WriteRune(r)
		for i := 0; i < size; i++ {
			s.advance()
		}
	}
	return Token{}, syntaxErr("Unterminated string literal", start)
}

func (s *scanner) scanIdentOrKeyword() Token {
	start := s.col
	startPos := s.pos
	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.src[startPos:s.pos]
	if typ, ok := keywords[text]; ok {
		return Token{Type: typ, Value: text, Col: start}
	}
	return Token{Type: TokIdent, Value: text, Col: start}
}
