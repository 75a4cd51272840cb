package ext

import (
	"fmt"

	"github.com/funvibe/macroext/pkg/value"
)

// scriptSite replays a pre-tokenized call site. Punct items are returned
// by Next; any other item is consumed by the typed readers.
type scriptSite struct {
	items []any
	pos   int
	diags []error
}

func site(items ...any) *scriptSite { return &scriptSite{items: items} }

func (s *scriptSite) Next() Punct {
	if s.pos >= len(s.items) {
		return PunctOther
	}
	it := s.items[s.pos]
	s.pos++
	if p, ok := it.(Punct); ok {
		return p
	}
	return PunctOther
}

func (s *scriptSite) Peek() Punct {
	if s.pos >= len(s.items) {
		return PunctOther
	}
	if p, ok := s.items[s.pos].(Punct); ok {
		return p
	}
	return PunctOther
}

func (s *scriptSite) take() (any, error) {
	if s.pos >= len(s.items) {
		return nil, fmt.Errorf("unexpected end of call")
	}
	it := s.items[s.pos]
	s.pos++
	return it, nil
}

func (s *scriptSite) Number() (float64, error) {
	it, err := s.take()
	if err != nil {
		return 0, err
	}
	n, ok := it.(float64)
	if !ok {
		return 0, fmt.Errorf("number expected, got %T", it)
	}
	return n, nil
}

func (s *scriptSite) String() (string, error) {
	it, err := s.take()
	if err != nil {
		return "", err
	}
	str, ok := it.(string)
	if !ok {
		return "", fmt.Errorf("string expected, got %T", it)
	}
	return str, nil
}

func (s *scriptSite) Array() ([]*value.Variable, error) {
	it, err := s.take()
	if err != nil {
		return nil, err
	}
	arr, ok := it.([]*value.Variable)
	if !ok {
		return nil, fmt.Errorf("array expected, got %T", it)
	}
	return arr, nil
}

func (s *scriptSite) Ref() (*value.Variable, error) {
	it, err := s.take()
	if err != nil {
		return nil, err
	}
	v, ok := it.(*value.Variable)
	if !ok {
		return nil, fmt.Errorf("variable expected, got %T", it)
	}
	return v, nil
}

func (s *scriptSite) Diagnostic(err error) { s.diags = append(s.diags, err) }

const (
	lp    = PunctLParen
	rp    = PunctRParen
	comma = PunctComma
)

// recorder is a Handler that remembers its last call.
type recorder struct {
	calls int
	name  string
	args  []any
	fn    func(args []any) (Result, error)
}

func (r *recorder) Handle(name string, args []any) (Result, error) {
	r.calls++
	r.name = name
	r.args = args
	if r.fn != nil {
		return r.fn(args)
	}
	return NoResult, nil
}
