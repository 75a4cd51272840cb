package interp

import (
	"github.com/funvibe/macroext/internal/config"
	"github.com/funvibe/macroext/internal/token"
	"github.com/funvibe/macroext/pkg/value"
)

func (in *Interpreter) statement() error {
	tok := in.cur()
	switch {
	case tok.Type == token.SEMICOLON:
		in.advance()
		return nil
	case tok.Type == token.IDENT && in.peekAt(1).Type == token.ASSIGN:
		in.advance()
		in.advance()
		v, err := in.expr()
		if err != nil {
			return err
		}
		in.assign(tok.Lexeme, v)
	case tok.Type == token.IDENT && in.peekAt(1).Type == token.LBRACKET && in.isIndexedAssignment():
		slot, err := in.ref()
		if err != nil {
			return err
		}
		in.advance() // =
		v, err := in.expr()
		if err != nil {
			return err
		}
		slot.Set(v)
	default:
		if _, err := in.expr(); err != nil {
			return err
		}
	}
	return in.endStatement()
}

// isIndexedAssignment looks past a bracketed index for '='.
func (in *Interpreter) isIndexedAssignment() bool {
	depth := 0
	for i := 1; ; i++ {
		tok := in.peekAt(i)
		switch tok.Type {
		case token.LBRACKET:
			depth++
		case token.RBRACKET:
			depth--
			if depth == 0 {
				return in.peekAt(i+1).Type == token.ASSIGN
			}
		case token.EOF, token.SEMICOLON:
			return false
		}
	}
}

func (in *Interpreter) endStatement() error {
	tok := in.cur()
	switch tok.Type {
	case token.SEMICOLON:
		in.advance()
		return nil
	case token.EOF, token.IDENT:
		return nil
	default:
		return in.errorf(tok, "';' expected, found %s", describe(tok))
	}
}

func (in *Interpreter) expr() (*value.Variable, error) {
	left, err := in.term()
	if err != nil {
		return nil, err
	}
	for {
		op := in.cur()
		if op.Type != token.PLUS && op.Type != token.MINUS {
			return left, nil
		}
		in.advance()
		right, err := in.term()
		if err != nil {
			return nil, err
		}
		if op.Type == token.PLUS && (left.Kind() == value.String || right.Kind() == value.String) {
			if left.Kind() == value.Array || right.Kind() == value.Array {
				return nil, in.errorf(op, "cannot concatenate an array")
			}
			left = value.NewString(left.String() + right.String())
			continue
		}
		left, err = in.arith(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (in *Interpreter) term() (*value.Variable, error) {
	left, err := in.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := in.cur()
		if op.Type != token.ASTERISK && op.Type != token.SLASH {
			return left, nil
		}
		in.advance()
		right, err := in.unary()
		if err != nil {
			return nil, err
		}
		left, err = in.arith(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (in *Interpreter) arith(op token.Token, left, right *value.Variable) (*value.Variable, error) {
	if left.Kind() != value.Number || right.Kind() != value.Number {
		return nil, in.errorf(op, "number expected for '%s', got %s and %s", op.Lexeme, left.Kind(), right.Kind())
	}
	a, b := left.Number(), right.Number()
	switch op.Type {
	case token.PLUS:
		return value.NewNumber(a + b), nil
	case token.MINUS:
		return value.NewNumber(a - b), nil
	case token.ASTERISK:
		return value.NewNumber(a * b), nil
	default:
		return value.NewNumber(a / b), nil
	}
}

func (in *Interpreter) unary() (*value.Variable, error) {
	if tok := in.cur(); tok.Type == token.MINUS {
		in.advance()
		v, err := in.unary()
		if err != nil {
			return nil, err
		}
		if v.Kind() != value.Number {
			return nil, in.errorf(tok, "number expected after '-', got %s", v.Kind())
		}
		return value.NewNumber(-v.Number()), nil
	}
	return in.primary()
}

func (in *Interpreter) primary() (*value.Variable, error) {
	tok := in.cur()
	switch tok.Type {
	case token.NUMBER:
		in.advance()
		return value.NewNumber(tok.Literal.(float64)), nil
	case token.STRING:
		in.advance()
		return value.NewString(tok.Literal.(string)), nil
	case token.LPAREN:
		in.advance()
		v, err := in.expr()
		if err != nil {
			return nil, err
		}
		if _, err := in.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return v, nil
	case token.IDENT:
		return in.identifier()
	default:
		return nil, in.errorf(tok, "unexpected %s", describe(tok))
	}
}

func (in *Interpreter) identifier() (*value.Variable, error) {
	tok := in.cur()
	if tok.Lexeme == ExtObject && in.peekAt(1).Type == token.DOT {
		return in.extCall()
	}
	if in.peekAt(1).Type == token.LPAREN {
		return in.builtin()
	}
	slot, err := in.ref()
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// ref resolves a variable or an indexed array element to its slot.
func (in *Interpreter) ref() (*value.Variable, error) {
	tok, err := in.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	slot, ok := in.vars[tok.Lexeme]
	if !ok {
		return nil, in.errorf(tok, "undefined variable %q", tok.Lexeme)
	}
	for in.cur().Type == token.LBRACKET {
		open := in.advance()
		idx, err := in.expr()
		if err != nil {
			return nil, err
		}
		if _, err := in.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		if slot.Kind() != value.Array {
			return nil, in.errorf(open, "array expected, %q is a %s", tok.Lexeme, slot.Kind())
		}
		if idx.Kind() != value.Number {
			return nil, in.errorf(open, "number expected for index, got %s", idx.Kind())
		}
		i, elems := int(idx.Number()), slot.Array()
		if i < 0 || i >= len(elems) || float64(i) != idx.Number() {
			return nil, in.errorf(open, "index (%s) out of range 0-%d", value.FormatNumber(idx.Number()), len(elems)-1)
		}
		if elems[i] == nil {
			elems[i] = &value.Variable{}
		}
		slot = elems[i]
	}
	return slot, nil
}

func (in *Interpreter) args() ([]*value.Variable, error) {
	if _, err := in.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var vals []*value.Variable
	if in.cur().Type == token.RPAREN {
		in.advance()
		return vals, nil
	}
	for {
		v, err := in.expr()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if in.cur().Type != token.COMMA {
			break
		}
		in.advance()
	}
	if _, err := in.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return vals, nil
}

func (in *Interpreter) builtin() (*value.Variable, error) {
	name := in.advance()
	vals, err := in.args()
	if err != nil {
		return nil, err
	}
	switch name.Lexeme {
	case config.PrintFuncName:
		in.print(vals)
		return value.NewString(""), nil
	case config.NewArrayFuncName:
		if len(vals) == 1 && vals[0].Kind() == value.Number {
			n := int(vals[0].Number())
			if n < 0 {
				return nil, in.errorf(name, "negative array size")
			}
			elems := make([]*value.Variable, n)
			for i := range elems {
				elems[i] = value.NewNumber(0)
			}
			return value.NewArray(elems...), nil
		}
		elems := make([]*value.Variable, len(vals))
		for i, v := range vals {
			if v.Kind() == value.Array {
				return nil, in.errorf(name, "arrays cannot be nested with newArray")
			}
			elems[i] = v.Copy()
		}
		return value.NewArray(elems...), nil
	case config.LengthOfFuncName:
		if len(vals) != 1 {
			return nil, in.errorf(name, "lengthOf expects 1 argument")
		}
		switch vals[0].Kind() {
		case value.Array:
			return value.NewNumber(float64(len(vals[0].Array()))), nil
		case value.String:
			return value.NewNumber(float64(len([]rune(vals[0].Text())))), nil
		default:
			return nil, in.errorf(name, "array or string expected")
		}
	default:
		return nil, in.errorf(name, "unrecognized function %q", name.Lexeme)
	}
}
