package ext

import "strings"

// ArgType is a raw argument kind combined with the Output and Optional
// modifier bits.
type ArgType int

const (
	ArgString ArgType = 0x01
	ArgNumber ArgType = 0x02
	ArgArray  ArgType = 0x04

	// ArgOutput marks a write-back slot. Not supported together with ArgArray.
	ArgOutput ArgType = 0x10
	// ArgOptional lets a call omit the argument when it is the first missing one.
	ArgOptional ArgType = 0x20
)

const modifierMask = ArgOutput | ArgOptional

func IsOptional(t ArgType) bool { return t&ArgOptional == ArgOptional }

func IsOutput(t ArgType) bool { return t&ArgOutput == ArgOutput }

// Raw strips the modifier bits.
func Raw(t ArgType) ArgType { return t &^ modifierMask }

// TypeName is the diagnostic name of t's raw kind.
func TypeName(t ArgType) string {
	switch Raw(t) {
	case ArgString:
		return "string"
	case ArgNumber:
		return "number"
	case ArgArray:
		return "array"
	default:
		return "unknown"
	}
}

func (t ArgType) String() string {
	var b strings.Builder
	b.WriteString(TypeName(t))
	if IsOutput(t) {
		b.WriteString("+output")
	}
	if IsOptional(t) {
		b.WriteString("+optional")
	}
	return b.String()
}

// validate rejects unknown raw kinds and the unsupported array output.
func (t ArgType) validate() error {
	switch Raw(t) {
	case ArgString, ArgNumber:
		return nil
	case ArgArray:
		if IsOutput(t) {
			return ErrUnsupportedArgType
		}
		return nil
	default:
		return ErrUnsupportedArgType
	}
}
