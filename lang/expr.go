package lang

import (
	"errors"
	"strconv"
	"strings"
)

// parseExpr parses an arithmetic expression by precedence climbing.
//
// It reports false when no complete expression starts at the cursor. The
// cursor is then left wherever parsing stopped; callers rewind with
// [Scanner.Reset] before trying another value form.
func (p *parser) parseExpr() (Expr, bool) {
	return p.parseBinary(OpAdd.precedence())
}

func (p *parser) parseBinary(minPrec int) (Expr, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}

	for {
		mark := p.s.Mark()

		op, isOp := binaryOperator(p.s.Next())
		if !isOp || op.precedence() < minPrec {
			p.s.Reset(mark)

			return left, true
		}

		// Left-associative: the right operand binds only tighter operators.
		right, ok := p.parseBinary(op.precedence() + 1)
		if !ok {
			p.s.Reset(mark)

			return left, true
		}

		left = &BinaryExpr{
			Op:    op,
			Left:  left,
			Right: right,
			Pos:   spanOf(left.Span().Start, right.Span().End),
		}
	}
}

func binaryOperator(tok Token) (Operator, bool) {
	switch tok.Kind {
	case TokenPlus:
		return OpAdd, true
	case TokenMinus:
		return OpSub, true
	case TokenStar:
		return OpMul, true
	case TokenSlash:
		return OpDiv, true
	default:
		return 0, false
	}
}

func (p *parser) parseUnary() (Expr, bool) {
	mark := p.s.Mark()
	tok := p.s.Next()

	if tok.Kind != TokenMinus {
		p.s.Reset(mark)

		return p.parsePrimary()
	}

	if !p.enter(tok.Span) {
		return nil, false
	}
	defer p.leave()

	operand, ok := p.parseUnary()
	if !ok {
		return nil, false
	}

	return &UnaryExpr{
		Op:      OpNeg,
		Operand: operand,
		Pos:     spanOf(tok.Span.Start, operand.Span().End),
	}, true
}

func (p *parser) parsePrimary() (Expr, bool) {
	tok := p.s.Next()

	switch tok.Kind {
	case TokenNumber:
		return newNumber(tok.Text, tok.Span)

	case TokenPlus:
		// A sign is part of the literal only when no space follows it.
		if !isDigit(p.s.peekAt(0)) && (p.s.peekAt(0) != '.' || !isDigit(p.s.peekAt(1))) {
			return nil, false
		}

		num := p.s.Next()
		if num.Kind != TokenNumber {
			return nil, false
		}

		return newNumber(tok.Text+num.Text, spanOf(tok.Span.Start, num.Span.End))

	case TokenAmpersand:
		ref, ok := p.s.scanPath()
		if !ok {
			return nil, false
		}

		ref.Sigil = true
		ref.Pos.Start = tok.Span.Start

		return ref, true

	case TokenLParen:
		if !p.enter(tok.Span) {
			return nil, false
		}
		defer p.leave()

		inner, ok := p.parseExpr()
		if !ok || p.s.Next().Kind != TokenRParen {
			return nil, false
		}

		// Grouping leaves no node behind; the tree shape records it.
		return inner, true

	case TokenIdentifier:
		if p.s.peekAt(0) != '(' {
			return nil, false
		}

		return p.parseCall(tok)

	default:
		return nil, false
	}
}

// parseCall parses the argument list of a call whose name has been
// consumed and is immediately followed by '('. At least one argument is
// required.
func (p *parser) parseCall(name Token) (Expr, bool) {
	if !p.enter(name.Span) {
		return nil, false
	}
	defer p.leave()

	p.s.advance() // '('

	call := &Call{Func: &Identifier{Name: name.Text, Pos: name.Span}}

	for {
		mark := p.s.Mark()

		switch tok := p.s.Next(); tok.Kind {
		case TokenRParen:
			if len(call.Args) == 0 {
				return nil, false
			}

			call.Pos = spanOf(name.Span.Start, tok.Span.End)

			return call, true

		case TokenComma:
			if len(call.Args) == 0 {
				return nil, false
			}

			continue

		case TokenEOF:
			return nil, false
		}

		p.s.Reset(mark)

		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}

		call.Args = append(call.Args, arg)
	}
}

// newNumber builds a Number from literal text. Digit separators and the
// unit suffix do not take part in the numeric value.
func newNumber(text string, span Span) (*Number, bool) {
	num := &Number{Text: text, Pos: span}

	digits := text
	if n := len(digits); n > 0 {
		switch digits[n-1] {
		case 'd', 'r', '%':
			num.Unit = digits[n-1:]
			digits = digits[:n-1]
		}
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(digits, "_", ""), 64)
	if err != nil {
		// Out of range literals keep their text; the value saturates.
		if !errors.Is(err, strconv.ErrRange) {
			return nil, false
		}
	}

	num.Value = v

	return num, true
}
