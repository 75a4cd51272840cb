package ext

import (
	"errors"
	"fmt"

	"github.com/funvibe/macroext/pkg/value"
)

// Dispatch runs one call of d at site: it parses and converts the
// arguments, invokes the handler and writes output arguments back.
//
// Arity, syntax and type errors are returned before the handler runs.
// A failing handler is reported through site.Diagnostic and yields
// NoResult with a nil error; output arguments are still written back.
func (d *Descriptor) Dispatch(site CallSite) (Result, error) {
	if len(d.ArgTypes) == 0 {
		if err := consumeEmptyParens(site, d); err != nil {
			return NoResult, err
		}
		return d.invoke(site, []any{}), nil
	}

	vars, err := ParseArguments(site, d)
	if err != nil {
		return NoResult, err
	}
	if n := len(vars); n < len(d.ArgTypes) && !IsOptional(d.ArgTypes[n]) {
		return NoResult, callErrorf(d.Name, n+1, ErrMissingArgument,
			"expected argument %d of type %s", n+1, TypeName(d.ArgTypes[n]))
	}

	args := make([]any, len(vars))
	for i, v := range vars {
		native, err := ToNative(d.ArgTypes[i], v)
		if err != nil {
			kind := ErrTypeMismatch
			if errors.Is(err, ErrRecursionLimit) {
				kind = ErrRecursionLimit
			}
			return NoResult, &CallError{Func: d.Name, Pos: i + 1, Err: kind, Msg: err.Error()}
		}
		args[i] = native
	}

	res := d.invoke(site, args)
	writeBack(d.ArgTypes, vars, args)
	return res, nil
}

// consumeEmptyParens accepts "()" or no parameter list at all.
func consumeEmptyParens(site CallSite, d *Descriptor) error {
	if site.Peek() != PunctLParen {
		return nil
	}
	site.Next()
	if p := site.Next(); p != PunctRParen {
		if p == PunctOther || p == PunctComma {
			return callErrorf(d.Name, 0, ErrArity, "too many arguments (expected 0)")
		}
		return callErrorf(d.Name, 0, ErrSyntax, "')' expected")
	}
	return nil
}

func (d *Descriptor) invoke(site CallSite, args []any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			site.Diagnostic(&CallError{Func: d.Name, Err: ErrHandlerInvocation, Msg: fmt.Sprintf("panic: %v", r)})
			res = NoResult
		}
	}()
	res, err := d.Handler.Handle(d.Name, args)
	if err != nil {
		if !errors.Is(err, ErrHandlerInvocation) {
			err = fmt.Errorf("%w: %w", ErrHandlerInvocation, err)
		}
		site.Diagnostic(&CallError{Func: d.Name, Err: err, Msg: err.Error()})
		return NoResult
	}
	return res
}

func writeBack(types []ArgType, vars []*value.Variable, args []any) {
	for i, v := range vars {
		if IsOutput(types[i]) {
			FromNative(v, args[i])
		}
	}
}
