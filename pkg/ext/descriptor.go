// Package ext marshals macro-level calls onto natively implemented
// extension functions.
//
// A Descriptor names an extension function, fixes the ordered types of its
// arguments and binds it to a Handler. At a call site the Descriptor parses
// the arguments from a CallSite, converts them to native values, invokes the
// Handler and copies output arguments back into the caller's variables.
//
// Descriptors are built explicitly with NewDescriptor, derived from a Go
// value's method set with Synthesize, or emitted ahead of time by the
// extgen code generator. All three share the same dispatch path.
package ext

import (
	"errors"
	"fmt"
)

// Result is the optional string an extension function returns.
type Result struct {
	Text  string
	Valid bool
}

// NoResult is the absent result.
var NoResult = Result{}

// Text returns a present result holding s.
func Text(s string) Result { return Result{Text: s, Valid: true} }

// Handler executes extension functions. args holds one native value per
// supplied argument: string, float64, []string{v}, []float64{v} or []any.
// Output slices may be overwritten in place.
type Handler interface {
	Handle(name string, args []any) (Result, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(name string, args []any) (Result, error)

func (f HandlerFunc) Handle(name string, args []any) (Result, error) {
	return f(name, args)
}

// Descriptor is the registered call signature of one extension function.
type Descriptor struct {
	Name     string
	ArgTypes []ArgType
	Handler  Handler
}

// NewDescriptor copies types so later changes to the caller's slice do not
// alter the signature.
func NewDescriptor(name string, handler Handler, types ...ArgType) (*Descriptor, error) {
	if name == "" {
		return nil, errors.New("extension name is empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("extension %s: nil handler", name)
	}
	argTypes := make([]ArgType, len(types))
	for i, t := range types {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("extension %s, argument %d (%#x): %w", name, i+1, int(t), err)
		}
		argTypes[i] = t
	}
	return &Descriptor{Name: name, ArgTypes: argTypes, Handler: handler}, nil
}

// MustDescriptor is NewDescriptor for static registration tables.
func MustDescriptor(name string, handler Handler, types ...ArgType) *Descriptor {
	d, err := NewDescriptor(name, handler, types...)
	if err != nil {
		panic(err)
	}
	return d
}

// Arity is the declared number of arguments.
func (d *Descriptor) Arity() int { return len(d.ArgTypes) }

// MinArity is the number of leading arguments a call must supply.
func (d *Descriptor) MinArity() int {
	for i, t := range d.ArgTypes {
		if IsOptional(t) {
			return i
		}
	}
	return len(d.ArgTypes)
}

// Signature renders the descriptor as name(type, ...).
func (d *Descriptor) Signature() string {
	s := d.Name + "("
	for i, t := range d.ArgTypes {
		if i > 0 {
			s += ", "
		}
		s += t.String()
	}
	return s + ")"
}

// CheckArguments reports whether args have the native shapes the
// descriptor declares. A shorter args is accepted when the first missing
// position is optional.
func (d *Descriptor) CheckArguments(args []any) bool {
	if len(args) > len(d.ArgTypes) {
		return false
	}
	for i, t := range d.ArgTypes {
		if len(args) <= i {
			return IsOptional(t)
		}
		if !nativeMatches(t, args[i]) {
			return false
		}
	}
	return true
}

func nativeMatches(t ArgType, arg any) bool {
	output := IsOutput(t)
	switch Raw(t) {
	case ArgString:
		if output {
			s, ok := arg.([]string)
			return ok && len(s) == 1
		}
		_, ok := arg.(string)
		return ok
	case ArgNumber:
		if output {
			n, ok := arg.([]float64)
			return ok && len(n) == 1
		}
		_, ok := arg.(float64)
		return ok
	case ArgArray:
		_, ok := arg.([]any)
		return ok
	default:
		return false
	}
}
