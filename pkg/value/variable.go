// Package value holds the macro interpreter's dynamic value.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the runtime tag of a Variable.
type Kind int

const (
	// Number is the zero Kind, so a zero Variable is the number 0.
	Number Kind = iota
	String
	Array
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// Variable is a tagged union over number, string and array.
// Only the payload selected by the tag is meaningful. A *Variable is also
// used as a writable slot: setters replace both tag and payload in place.
type Variable struct {
	kind Kind
	num  float64
	str  string
	arr  []*Variable
}

func NewNumber(n float64) *Variable { return &Variable{kind: Number, num: n} }

func NewString(s string) *Variable { return &Variable{kind: String, str: s} }

// NewArray wraps elems without copying them.
func NewArray(elems ...*Variable) *Variable {
	if elems == nil {
		elems = []*Variable{}
	}
	return &Variable{kind: Array, arr: elems}
}

func (v *Variable) Kind() Kind { return v.kind }

// Number returns the numeric payload; 0 unless Kind is Number.
func (v *Variable) Number() float64 { return v.num }

// Text returns the string payload; "" unless Kind is String.
func (v *Variable) Text() string { return v.str }

// Array returns the element slots; nil unless Kind is Array.
func (v *Variable) Array() []*Variable { return v.arr }

func (v *Variable) SetNumber(n float64) {
	*v = Variable{kind: Number, num: n}
}

func (v *Variable) SetString(s string) {
	*v = Variable{kind: String, str: s}
}

func (v *Variable) SetArray(elems []*Variable) {
	if elems == nil {
		elems = []*Variable{}
	}
	*v = Variable{kind: Array, arr: elems}
}

// Set copies other's tag and payload into v. Arrays are copied deeply so
// the two variables do not share element slots afterwards.
func (v *Variable) Set(other *Variable) {
	*v = *other.Copy()
}

// Copy returns a deep copy of v.
func (v *Variable) Copy() *Variable {
	switch v.kind {
	case Number:
		return NewNumber(v.num)
	case String:
		return NewString(v.str)
	case Array:
		elems := make([]*Variable, len(v.arr))
		for i, e := range v.arr {
			elems[i] = e.Copy()
		}
		return NewArray(elems...)
	default:
		return &Variable{}
	}
}

// Equal reports whether v and other have the same tag and payload.
func (v *Variable) Equal(other *Variable) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case Number:
		return v.num == other.num
	case String:
		return v.str == other.str
	case Array:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v the way print shows it.
func (v *Variable) String() string {
	switch v.kind {
	case Number:
		return FormatNumber(v.num)
	case String:
		return v.str
	case Array:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return strings.Join(parts, ",")
	default:
		return "<unknown>"
	}
}

// FormatNumber prints integral values without a fraction and everything
// else with four decimals, the usual macro convention. Magnitudes of 1e15
// and above use the shortest exponent form.
func FormatNumber(n float64) string {
	if math.Abs(n) >= 1e15 || math.IsNaN(n) {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	if n == math.Trunc(n) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', 4, 64)
}
