package remote

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/macroext/pkg/ext"
	"github.com/funvibe/macroext/pkg/value"
)

func isNumeric(t descriptorpb.FieldDescriptorProto_Type) bool {
	switch t {
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
		descriptorpb.FieldDescriptorProto_TYPE_INT32, descriptorpb.FieldDescriptorProto_TYPE_SINT32, descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
		descriptorpb.FieldDescriptorProto_TYPE_INT64, descriptorpb.FieldDescriptorProto_TYPE_SINT64, descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
		descriptorpb.FieldDescriptorProto_TYPE_UINT32, descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
		descriptorpb.FieldDescriptorProto_TYPE_UINT64, descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		return true
	}
	return false
}

// argTypeOf maps an input field to its argument type: numeric fields are
// numbers, strings are strings and repeated scalars are arrays.
func argTypeOf(fd *desc.FieldDescriptor) (ext.ArgType, error) {
	t := fd.GetType()
	scalar := isNumeric(t) || t == descriptorpb.FieldDescriptorProto_TYPE_STRING
	switch {
	case fd.IsMap() || !scalar:
		return 0, fmt.Errorf("%w: %s", ext.ErrUnsupportedShape, strings.ToLower(strings.TrimPrefix(t.String(), "TYPE_")))
	case fd.IsRepeated():
		return ext.ArgArray, nil
	case t == descriptorpb.FieldDescriptorProto_TYPE_STRING:
		return ext.ArgString, nil
	default:
		return ext.ArgNumber, nil
	}
}

func toProto(fd *desc.FieldDescriptor, arg any) (interface{}, error) {
	if !fd.IsRepeated() {
		return toProtoScalar(fd.GetType(), arg)
	}
	elems, ok := arg.([]any)
	if !ok {
		return nil, fmt.Errorf("array expected, got %T", arg)
	}
	out := make([]interface{}, len(elems))
	for i, e := range elems {
		v, err := toProtoScalar(fd.GetType(), e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func toProtoScalar(t descriptorpb.FieldDescriptorProto_Type, v any) (interface{}, error) {
	if t == descriptorpb.FieldDescriptorProto_TYPE_STRING {
		switch x := v.(type) {
		case string:
			return x, nil
		case float64:
			return value.FormatNumber(x), nil
		}
		return nil, fmt.Errorf("unsupported conversion of %T to string", v)
	}

	n, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("unsupported conversion of %T to %v", v, t)
	}
	switch t {
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		return n, nil
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		return float32(n), nil
	case descriptorpb.FieldDescriptorProto_TYPE_INT32, descriptorpb.FieldDescriptorProto_TYPE_SINT32, descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		if err := checkInteger(n, math.MinInt32, math.MaxInt32, t); err != nil {
			return nil, err
		}
		return int32(n), nil
	case descriptorpb.FieldDescriptorProto_TYPE_INT64, descriptorpb.FieldDescriptorProto_TYPE_SINT64, descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		// 2^63 is the first float64 past MaxInt64.
		if err := checkInteger(n, math.MinInt64, math.Nextafter(1<<63, 0), t); err != nil {
			return nil, err
		}
		return int64(n), nil
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32, descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		if err := checkInteger(n, 0, math.MaxUint32, t); err != nil {
			return nil, err
		}
		return uint32(n), nil
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64, descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		if err := checkInteger(n, 0, math.Nextafter(1<<64, 0), t); err != nil {
			return nil, err
		}
		return uint64(n), nil
	}
	return nil, fmt.Errorf("unsupported conversion of %T to %v", v, t)
}

// checkInteger rejects n unless it is a whole number within [lo, hi].
func checkInteger(n, lo, hi float64, t descriptorpb.FieldDescriptorProto_Type) error {
	name := strings.ToLower(strings.TrimPrefix(t.String(), "TYPE_"))
	if math.Trunc(n) != n {
		return fmt.Errorf("%s is not an integer, %s expected", value.FormatNumber(n), name)
	}
	if n < lo || n > hi {
		return fmt.Errorf("%s is out of range for %s", value.FormatNumber(n), name)
	}
	return nil
}

// fromProto renders a response field value as macro text.
func fromProto(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return ext.FormatResult(x)
	case float32:
		return ext.FormatResult(float64(x))
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case []byte:
		return string(x)
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = fromProto(e)
		}
		return strings.Join(parts, ",")
	case *dynamic.Message:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
