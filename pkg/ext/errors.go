package ext

import (
	"errors"
	"fmt"
)

var (
	// ErrArity covers calls with too many or too few arguments.
	ErrArity = errors.New("arity error")
	// ErrMissingArgument is the ErrArity raised when a required argument is
	// absent after parsing.
	ErrMissingArgument = fmt.Errorf("%w: missing argument", ErrArity)
	ErrSyntax          = errors.New("syntax error")
	ErrTypeMismatch    = errors.New("type mismatch")
	// ErrUnsupportedShape is raised at discovery time for a native parameter
	// or result type with no argument mapping.
	ErrUnsupportedShape = errors.New("unsupported parameter shape")
	// ErrHandlerInvocation wraps failures inside a handler. Dispatch reports
	// it as a diagnostic and does not return it.
	ErrHandlerInvocation = errors.New("extension invocation failed")
	// ErrRecursionLimit is raised when an array nests deeper than
	// MaxNestingDepth, which is also how reference cycles surface.
	ErrRecursionLimit = errors.New("array nesting too deep")
	// ErrUnsupportedArgType rejects unknown raw kinds and array outputs.
	ErrUnsupportedArgType = errors.New("unsupported argument type")
)

// CallError ties one of the sentinel errors above to an extension call.
type CallError struct {
	Func string
	// Pos is the 1-based argument position, 0 when not tied to one.
	Pos int
	Err error
	Msg string
}

func (e *CallError) Error() string {
	if e.Pos > 0 {
		return fmt.Sprintf("%s (argument %d): %s", e.Func, e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Func, e.Msg)
}

func (e *CallError) Unwrap() error { return e.Err }

func callErrorf(fn string, pos int, kind error, format string, args ...interface{}) *CallError {
	return &CallError{Func: fn, Pos: pos, Err: kind, Msg: fmt.Sprintf(format, args...)}
}
