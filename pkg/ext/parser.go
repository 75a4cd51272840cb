package ext

import "github.com/funvibe/macroext/pkg/value"

// Punct classifies the tokens the argument parser needs to recognize.
type Punct int

const (
	PunctOther Punct = iota
	PunctLParen
	PunctRParen
	PunctComma
)

func (p Punct) String() string {
	switch p {
	case PunctLParen:
		return "'('"
	case PunctRParen:
		return "')'"
	case PunctComma:
		return "','"
	default:
		return "token"
	}
}

// CallSite is the interpreter state positioned just after an extension
// function's name.
type CallSite interface {
	// Next consumes one token.
	Next() Punct
	// Peek classifies the next non-separator token without consuming it.
	Peek() Punct
	// Number evaluates an arithmetic expression.
	Number() (float64, error)
	// String reads a string literal or string-valued expression.
	String() (string, error)
	// Array reads an array literal or a reference to an array variable.
	Array() ([]*value.Variable, error)
	// Ref resolves a variable or array element the handler may overwrite.
	Ref() (*value.Variable, error)
	// Diagnostic reports a non-fatal error to the user.
	Diagnostic(err error)
}

// ParseArguments reads the parenthesized argument list for d. The result
// may be shorter than d.ArgTypes only when the first missing position is
// optional; an empty list is returned as a non-nil empty slice.
func ParseArguments(site CallSite, d *Descriptor) ([]*value.Variable, error) {
	if p := site.Next(); p != PunctLParen {
		return nil, callErrorf(d.Name, 0, ErrSyntax, "'(' expected, found %s", p)
	}
	vars := make([]*value.Variable, 0, len(d.ArgTypes))
	if site.Peek() == PunctRParen {
		site.Next()
		return vars, nil
	}

	var term Punct
	for {
		i := len(vars)
		if i >= len(d.ArgTypes) {
			return nil, callErrorf(d.Name, 0, ErrArity, "too many arguments (expected %d)", len(d.ArgTypes))
		}
		v, err := readArgument(site, d.ArgTypes[i])
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
		term = site.Next()
		if term != PunctComma {
			break
		}
	}
	if term != PunctRParen {
		return nil, callErrorf(d.Name, 0, ErrSyntax, "')' expected")
	}
	if n := len(vars); n < len(d.ArgTypes) && !IsOptional(d.ArgTypes[n]) {
		return nil, callErrorf(d.Name, 0, ErrArity, "too few arguments, expected %d but found %d", len(d.ArgTypes), n)
	}
	return vars, nil
}

func readArgument(site CallSite, t ArgType) (*value.Variable, error) {
	if IsOutput(t) {
		return site.Ref()
	}
	switch Raw(t) {
	case ArgString:
		s, err := site.String()
		if err != nil {
			return nil, err
		}
		return value.NewString(s), nil
	case ArgNumber:
		n, err := site.Number()
		if err != nil {
			return nil, err
		}
		return value.NewNumber(n), nil
	case ArgArray:
		elems, err := site.Array()
		if err != nil {
			return nil, err
		}
		return value.NewArray(elems...), nil
	default:
		return nil, ErrUnsupportedArgType
	}
}
