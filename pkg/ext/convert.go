package ext

import (
	"fmt"

	"github.com/funvibe/macroext/pkg/value"
)

// MaxNestingDepth bounds array recursion in both conversion directions.
// Variables are pointers, so an array can contain itself; the bound turns
// that into ErrRecursionLimit on the way in and into default values on
// the way out.
const MaxNestingDepth = 64

// ToNative converts v into the native shape declared by t.
func ToNative(t ArgType, v *value.Variable) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: no value for %s argument", ErrTypeMismatch, TypeName(t))
	}
	output := IsOutput(t)
	switch Raw(t) {
	case ArgString:
		if v.Kind() != value.String {
			return nil, mismatch(t, v)
		}
		if output {
			return []string{v.Text()}, nil
		}
		return v.Text(), nil
	case ArgNumber:
		if v.Kind() != value.Number {
			return nil, mismatch(t, v)
		}
		if output {
			return []float64{v.Number()}, nil
		}
		return v.Number(), nil
	case ArgArray:
		if v.Kind() != value.Array {
			return nil, mismatch(t, v)
		}
		return arrayToNative(v.Array(), 1)
	default:
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedArgType, int(t))
	}
}

func mismatch(t ArgType, v *value.Variable) error {
	return fmt.Errorf("%w: expected %s, but variable type is %s", ErrTypeMismatch, TypeName(t), v.Kind())
}

func arrayToNative(elems []*value.Variable, depth int) ([]any, error) {
	if depth > MaxNestingDepth {
		return nil, fmt.Errorf("%w (more than %d levels)", ErrRecursionLimit, MaxNestingDepth)
	}
	out := make([]any, len(elems))
	for i, e := range elems {
		if e == nil {
			continue
		}
		switch e.Kind() {
		case value.String:
			out[i] = e.Text()
		case value.Number:
			out[i] = e.Number()
		case value.Array:
			nested, err := arrayToNative(e.Array(), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = nested
		default:
			out[i] = nil
		}
	}
	return out, nil
}

// FromNative writes native into the slot v. One-element string and number
// slices unwrap to scalars, []any becomes an array. A top-level shape that
// is not recognized leaves v untouched; inside arrays it becomes the
// default (zero) Variable.
func FromNative(v *value.Variable, native any) {
	if nv, ok := fromNative(native, 1); ok {
		*v = *nv
	}
}

func fromNative(native any, depth int) (*value.Variable, bool) {
	switch x := native.(type) {
	case []string:
		if len(x) == 1 {
			return value.NewString(x[0]), true
		}
		return sliceFromNative(len(x), func(i int) any { return x[i] }, depth)
	case []float64:
		if len(x) == 1 {
			return value.NewNumber(x[0]), true
		}
		return sliceFromNative(len(x), func(i int) any { return x[i] }, depth)
	case []any:
		return sliceFromNative(len(x), func(i int) any { return x[i] }, depth)
	case string:
		return value.NewString(x), true
	case float64:
		return value.NewNumber(x), true
	case float32:
		return value.NewNumber(float64(x)), true
	case int:
		return value.NewNumber(float64(x)), true
	case int32:
		return value.NewNumber(float64(x)), true
	case int64:
		return value.NewNumber(float64(x)), true
	case *value.Variable:
		if x == nil {
			return nil, false
		}
		return x.Copy(), true
	default:
		return nil, false
	}
}

func sliceFromNative(n int, at func(int) any, depth int) (*value.Variable, bool) {
	if depth > MaxNestingDepth {
		return nil, false
	}
	elems := make([]*value.Variable, n)
	for i := 0; i < n; i++ {
		if ev, ok := fromNative(at(i), depth+1); ok {
			elems[i] = ev
		} else {
			elems[i] = &value.Variable{}
		}
	}
	return value.NewArray(elems...), true
}
