package interp

import (
	"github.com/funvibe/macroext/internal/config"
	"github.com/funvibe/macroext/internal/token"
	"github.com/funvibe/macroext/pkg/ext"
	"github.com/funvibe/macroext/pkg/value"
)

// extCall evaluates Ext.install("Set") or Ext.name(args). The value of an
// extension call is its string result, or "" when it returns nothing.
func (in *Interpreter) extCall() (*value.Variable, error) {
	in.advance() // Ext
	in.advance() // .
	name, err := in.expect(token.IDENT)
	if err != nil {
		return nil, err
	}

	if name.Lexeme == config.InstallFuncName {
		vals, err := in.args()
		if err != nil {
			return nil, err
		}
		if len(vals) != 1 || vals[0].Kind() != value.String {
			return nil, in.errorf(name, "Ext.install expects an extension set name")
		}
		if err := in.Install(vals[0].Text()); err != nil {
			return nil, in.errorAt(name, err)
		}
		return value.NewString(""), nil
	}

	d, ok := in.installed[name.Lexeme]
	if !ok {
		return nil, in.errorf(name, "unrecognized Ext function %q", name.Lexeme)
	}
	in.log.Debugw("dispatch", "func", d.Signature())
	res, err := d.Dispatch(&callSite{in: in})
	if err != nil {
		return nil, in.errorAt(name, err)
	}
	if !res.Valid {
		return value.NewString(""), nil
	}
	return value.NewString(res.Text), nil
}

// callSite feeds extension argument parsing from the interpreter's token
// stream.
type callSite struct {
	in *Interpreter
}

func classify(tok token.Token) ext.Punct {
	switch tok.Type {
	case token.LPAREN:
		return ext.PunctLParen
	case token.RPAREN:
		return ext.PunctRParen
	case token.COMMA:
		return ext.PunctComma
	default:
		return ext.PunctOther
	}
}

func (s *callSite) Next() ext.Punct { return classify(s.in.advance()) }

func (s *callSite) Peek() ext.Punct { return classify(s.in.cur()) }

func (s *callSite) Number() (float64, error) {
	tok := s.in.cur()
	v, err := s.in.expr()
	if err != nil {
		return 0, err
	}
	if v.Kind() != value.Number {
		return 0, s.in.errorf(tok, "number or numeric function expected, got %s", v.Kind())
	}
	return v.Number(), nil
}

func (s *callSite) String() (string, error) {
	tok := s.in.cur()
	v, err := s.in.expr()
	if err != nil {
		return "", err
	}
	switch v.Kind() {
	case value.String:
		return v.Text(), nil
	case value.Number:
		return value.FormatNumber(v.Number()), nil
	default:
		return "", s.in.errorf(tok, "string expected, got %s", v.Kind())
	}
}

func (s *callSite) Array() ([]*value.Variable, error) {
	tok := s.in.cur()
	v, err := s.in.expr()
	if err != nil {
		return nil, err
	}
	if v.Kind() != value.Array {
		return nil, s.in.errorf(tok, "array expected, got %s", v.Kind())
	}
	return v.Array(), nil
}

func (s *callSite) Ref() (*value.Variable, error) {
	tok := s.in.cur()
	if tok.Type != token.IDENT {
		return nil, s.in.errorf(tok, "variable expected, found %s", describe(tok))
	}
	return s.in.ref()
}

func (s *callSite) Diagnostic(err error) {
	s.in.report(err)
}
