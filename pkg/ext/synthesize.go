package ext

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DefaultPrefix marks the methods Synthesize turns into extension functions.
const DefaultPrefix = "Ext"

// MethodFunc calls one native method with converted arguments. It returns
// the method's value (nil when it has none) and its error, if any.
type MethodFunc func(args []any) (any, error)

// MethodHandler is the adapter Handler shared by reflect-synthesized and
// generated bindings. It only answers to its own extension name.
type MethodHandler struct {
	Name string
	Call MethodFunc
	Log  *zap.SugaredLogger
}

// NewMethodHandler binds call to the extension name. A nil log discards
// diagnostics.
func NewMethodHandler(name string, call MethodFunc, log *zap.SugaredLogger) *MethodHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MethodHandler{Name: name, Call: call, Log: log}
}

func (h *MethodHandler) Handle(name string, args []any) (res Result, err error) {
	if name != h.Name {
		return NoResult, fmt.Errorf("%w: invalid handler for extension function %s (only handles %s)",
			ErrHandlerInvocation, name, h.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: error invoking extension function %s: %v", ErrHandlerInvocation, h.Name, r)
			h.Log.Errorw("extension panicked", "func", h.Name, "panic", r)
			res = NoResult
		}
	}()
	out, callErr := h.Call(args)
	if callErr != nil {
		h.Log.Errorw("extension failed", "func", h.Name, "error", callErr)
		return NoResult, fmt.Errorf("%w: error invoking extension function %s: %w", ErrHandlerInvocation, h.Name, callErr)
	}
	if out == nil {
		return NoResult, nil
	}
	return Text(FormatResult(out)), nil
}

// FormatResult renders a method's return value as the macro-level string.
func FormatResult(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// Option configures Synthesize.
type Option func(*synthOptions)

type synthOptions struct {
	prefix string
	log    *zap.SugaredLogger
}

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(o *synthOptions) { o.prefix = prefix }
}

// WithLogger sets the logger used for discovery output and for the
// adapters' diagnostics.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *synthOptions) { o.log = log }
}

var (
	float64Type  = reflect.TypeOf(float64(0))
	float64Slice = reflect.TypeOf([]float64(nil))
	stringType   = reflect.TypeOf("")
	stringSlice  = reflect.TypeOf([]string(nil))
	anySlice     = reflect.TypeOf([]any(nil))
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// ArgTypeFor maps a native parameter type to its ArgType.
func ArgTypeFor(t reflect.Type) (ArgType, error) {
	switch t {
	case float64Type:
		return ArgNumber, nil
	case float64Slice:
		return ArgNumber | ArgOutput, nil
	case stringType:
		return ArgString, nil
	case stringSlice:
		return ArgString | ArgOutput, nil
	case anySlice:
		return ArgArray, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedShape, t)
	}
}

// Synthesize derives one Descriptor per exported method of instance whose
// name starts with the prefix; the remainder of the name becomes the
// extension name. Methods are visited in name order. A method whose
// parameter or result types have no mapping is skipped and its error is
// joined into the returned error; the other methods are still returned.
func Synthesize(set string, instance any, opts ...Option) ([]*Descriptor, error) {
	o := synthOptions{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop().Sugar()
	}
	log := o.log.Named("synth").With("set", set)

	if instance == nil {
		return nil, fmt.Errorf("extension set %s: nil instance", set)
	}
	rv := reflect.ValueOf(instance)
	rt := rv.Type()

	methods := make([]reflect.Method, 0, rt.NumMethod())
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if strings.HasPrefix(m.Name, o.prefix) && len(m.Name) > len(o.prefix) {
			methods = append(methods, m)
		}
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })

	var descs []*Descriptor
	var errs []error
	for _, m := range methods {
		extName := strings.TrimPrefix(m.Name, o.prefix)
		fn := rv.Method(m.Index)
		types, err := signatureOf(fn.Type())
		if err != nil {
			err = fmt.Errorf("extension set %s, method %s: %w", set, m.Name, err)
			log.Warnw("skipping extension function", "func", extName, "error", err)
			errs = append(errs, err)
			continue
		}
		log.Debugw("extension function", "func", extName, "args", types)
		h := NewMethodHandler(extName, reflectCall(fn), o.log)
		d, err := NewDescriptor(extName, h, types...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		descs = append(descs, d)
	}
	return descs, errors.Join(errs...)
}

func signatureOf(ft reflect.Type) ([]ArgType, error) {
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic %s", ErrUnsupportedShape, ft)
	}
	types := make([]ArgType, ft.NumIn())
	for i := range types {
		t, err := ArgTypeFor(ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		types[i] = t
	}
	switch ft.NumOut() {
	case 0, 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("%w: results %s, %s", ErrUnsupportedShape, ft.Out(0), ft.Out(1))
		}
	default:
		return nil, fmt.Errorf("%w: %d results", ErrUnsupportedShape, ft.NumOut())
	}
	return types, nil
}

// reflectCall invokes fn, treating a trailing error result as the call's
// error and a nil pointer, slice, map or interface result as no value.
func reflectCall(fn reflect.Value) MethodFunc {
	ft := fn.Type()
	return func(args []any) (any, error) {
		if len(args) > ft.NumIn() {
			return nil, fmt.Errorf("%d arguments for %d parameters", len(args), ft.NumIn())
		}
		in := make([]reflect.Value, ft.NumIn())
		for i := range in {
			if i >= len(args) || args[i] == nil {
				in[i] = reflect.Zero(ft.In(i))
				continue
			}
			av := reflect.ValueOf(args[i])
			if !av.Type().AssignableTo(ft.In(i)) {
				return nil, fmt.Errorf("argument %d: cannot use %s as %s", i+1, av.Type(), ft.In(i))
			}
			in[i] = av
		}
		out := fn.Call(in)
		var errOut error
		if n := len(out); n > 0 && ft.Out(n-1) == errorType {
			if e := out[n-1].Interface(); e != nil {
				errOut = e.(error)
			}
			out = out[:n-1]
		}
		if errOut != nil {
			return nil, errOut
		}
		if len(out) == 0 {
			return nil, nil
		}
		switch out[0].Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
			if out[0].IsNil() {
				return nil, nil
			}
		}
		return out[0].Interface(), nil
	}
}
