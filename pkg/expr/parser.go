package expr

import (
	"fmt"
	"strconv"
)

// Error is an expression-level failure with a 1-based column position.
// Syntax distinguishes malformed expressions from evaluation failures so
// the statement layer can map them onto the right diagnostic code.
type Error struct {
	Msg    string
	Col    int
	Syntax bool
}

func (e *Error) Error() string {
	return e.Msg
}

func syntaxErr(msg string, col int) *Error {
	return &Error{Msg: msg, Col: col, Syntax: true}
}

func evalErr(msg string, col int) *Error {
	return &Error{Msg: msg, Col: col}
}

type parser struct {
	toks []Token
	pos  int
}

// Parse parses one expression string into an AST. Disallowed constructs
// (unknown call targets, indexing, chained comparisons) are rejected
// here, before any evaluation happens.
func Parse(src string) (Node, *Error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, perr := p.parseOr()
	if perr != nil {
		return nil, perr
	}
	if p.peek() != TokEOF {
		tok := p.current()
		return nil, syntaxErr(fmt.Sprintf("Unexpected %q after expression", tok.Value), tok.Col)
	}
	return node, nil
}

func (p *parser) current() Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *parser) peek() TokenType {
	return p.current().Type
}

func (p *parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

// Precedence, loosest first: or, and, not, comparison, additive,
// multiplicative, unary +/-, power (right-associative), primary.

func (p *parser) parseOr() (Node, *Error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == TokOr {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Logic{Col: tok.Col, Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, *Error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek() == TokAnd {
		tok := p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Logic{Col: tok.Col, Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, *Error) {
	if p.peek() == TokNot {
		tok := p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Col: tok.Col, Op: OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

func compareOpFor(t TokenType) (CompareOp, bool) {
	switch t {
	case TokEqEq:
		return OpEq, true
	case TokBangEq:
		return OpNeq, true
	case TokLt:
		return OpLt, true
	case TokLtEq:
		return OpLtEq, true
	case TokGt:
		return OpGt, true
	case TokGtEq:
		return OpGtEq, true
	}
	return "", false
}

func (p *parser) parseComparison() (Node, *Error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := compareOpFor(p.peek())
	if !ok {
		return left, nil
	}
	tok := p.advance()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, chained := compareOpFor(p.peek()); chained {
		return nil, syntaxErr("Chained comparisons not supported", p.current().Col)
	}
	return &Compare{Col: tok.Col, Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseAdditive() (Node, *Error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		switch p.peek() {
		case TokPlus:
			op = OpAdd
		case TokMinus:
			op = OpSub
		default:
			return left, nil
		}
		tok := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Col: tok.Col, Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Node, *Error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		switch p.peek() {
		case TokStar:
			op = OpMul
		case TokSlash:
			op = OpDiv
		case TokSlashSlash:
			op = OpFloorDiv
		case TokPercent:
			op = OpMod
		default:
			return left, nil
		}
		tok := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Col: tok.Col, Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Node, *Error) {
	switch p.peek() {
	case TokPlus:
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Col: tok.Col, Op: OpPos, Operand: operand}, nil
	case TokMinus:
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Col: tok.Col, Op: OpNeg, Operand: operand}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, *Error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peek() != TokStarStar {
		return base, nil
	}
	tok := p.advance()
	// Right-associative; the exponent may carry its own unary sign.
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Binary{Col: tok.Col, Op: OpPow, Left: base, Right: exp}, nil
}

func (p *parser) parsePrimary() (Node, *Error) {
	tok := p.current()
	switch tok.Type {
	case TokIntLit:
		p.advance()
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, syntaxErr(fmt.Sprintf("Invalid integer literal %q", tok.Value), tok.Col)
		}
		return &IntLit{Col: tok.Col, Value: n}, nil

	case TokFloatLit:
		p.advance()
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, syntaxErr(fmt.Sprintf("Invalid number literal %q", tok.Value), tok.Col)
		}
		return &FloatLit{Col: tok.Col, Value: f}, nil

	case TokStringLit:
		p.advance()
		return &StrLit{Col: tok.Col, Value: tok.Value}, nil

	case TokTrue:
		p.advance()
		return &BoolLit{Col: tok.Col, Value: true}, nil

	case TokFalse:
		p.advance()
		return &BoolLit{Col: tok.Col, Value: false}, nil

	case TokIdent:
		p.advance()
		if p.peek() == TokLParen {
			return p.parseCall(tok)
		}
		return &Ident{Col: tok.Col, Name: tok.Value}, nil

	case TokLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != TokRParen {
			return nil, syntaxErr("Expected ')'", p.current().Col)
		}
		p.advance()
		return inner, nil

	case TokEOF:
		return nil, syntaxErr("Unexpected end of expression", tok.Col)
	}

	return nil, syntaxErr(fmt.Sprintf("Unexpected %q in expression", tok.Value), tok.Col)
}

// parseCall parses a builtin invocation. The whitelist check happens
// here so a disallowed call never reaches evaluation.
func (p *parser) parseCall(name Token) (Node, *Error) {
	if !IsBuiltin(name.Value) {
		return nil, syntaxErr(fmt.Sprintf("Unsupported function call '%s'", name.Value), name.Col)
	}
	p.advance() // consume '('

	var args []Node
	if p.peek() != TokRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek() != TokComma {
				break
			}
			p.advance()
		}
	}
	if p.peek() != TokRParen {
		return nil, syntaxErr("Expected ')' after arguments", p.current().Col)
	}
	p.advance()
	return &Call{Col: name.Col, Name: name.Value, Args: args}, nil
}
