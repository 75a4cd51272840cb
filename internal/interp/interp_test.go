package interp

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/funvibe/macroext/internal/config"
	"github.com/funvibe/macroext/pkg/ext"
	"github.com/funvibe/macroext/pkg/value"
)

type testSet struct {
	calls int
}

func (s *testSet) ExtAnswer(out []float64) { s.calls++; out[0] = 42 }
func (s *testSet) ExtUpper(out []string) { out[0] = strings.ToUpper(out[0]) }
func (s *testSet) ExtGreet(name string) string { return "hello " + name }
func (s *testSet) ExtAdd(a, b float64) float64 { return a + b }
func (s *testSet) ExtSum(items []any) float64 {
	total := 0.0
	for _, it := range items {
		if n, ok := it.(float64); ok {
			total += n
		}
	}
	return total
}
func (s *testSet) ExtFail() (string, error) { return "", errors.New("device not ready") }

func newTestInterp(t *testing.T) (*Interpreter, *bytes.Buffer, *testSet) {
	t.Helper()
	set := &testSet{}
	descs, err := ext.Synthesize("Test", set)
	require.NoError(t, err)

	reg := ext.NewRegistry()
	require.NoError(t, reg.Register("Test", descs...))

	opt := ext.MustDescriptor("Opt", ext.HandlerFunc(func(name string, args []any) (ext.Result, error) {
		return ext.Text(strings.Repeat("x", len(args))), nil
	}), ext.ArgNumber, ext.ArgNumber|ext.ArgOptional, ext.ArgString|ext.ArgOptional)
	require.NoError(t, reg.Register("Test", opt))

	var out bytes.Buffer
	in := New(reg, WithOutput(&out), WithLogger(zaptest.NewLogger(t).Sugar()))
	return in, &out, set
}

func TestRun_Arithmetic(t *testing.T) {
	in, out, _ := newTestInterp(t)
	require.NoError(t, in.Run(`a = 1 + 2 * 3; b = (1 + 2) * 3; print(a, b, -a / 2); print("n=" + a)`))
	assert.Equal(t, "7 9 -3.5000\nn=7\n", out.String())
}

func TestRun_Arrays(t *testing.T) {
	in, out, _ := newTestInterp(t)
	require.NoError(t, in.Run(`
a = newArray(3);
a[1] = 5;
b = a;
b[2] = "s";
print(a, lengthOf(a), lengthOf("four"));
`))
	assert.Equal(t, "0,5,s 3 4\n", out.String())
}

func TestRun_ExtOutputNumber(t *testing.T) {
	in, out, set := newTestInterp(t)
	require.NoError(t, in.Run(`Ext.install("Test"); w = 0; Ext.Answer(w); print(w);`))
	assert.Equal(t, "42\n", out.String())
	assert.Equal(t, 1, set.calls)

	w, ok := in.Var("w")
	require.True(t, ok)
	assert.True(t, w.Equal(value.NewNumber(42)))
}

func TestRun_ExtOutputArrayElement(t *testing.T) {
	in, out, _ := newTestInterp(t)
	require.NoError(t, in.Run(`Ext.install("Test"); a = newArray("x", "y"); Ext.Upper(a[1]); print(a);`))
	assert.Equal(t, "x,Y\n", out.String())
}

func TestRun_ExtResult(t *testing.T) {
	in, out, _ := newTestInterp(t)
	require.NoError(t, in.Run(`
Ext.install("Test")
s = Ext.Greet("bob")
n = Ext.Add(1 + 1,
            3)
t = Ext.Sum(newArray(1, 2, 3.5))
print(s, n, t)
`))
	assert.Equal(t, "hello bob 5 6.5\n", out.String())
}

func TestRun_ExtNumberToStringArgument(t *testing.T) {
	in, out, _ := newTestInterp(t)
	require.NoError(t, in.Run(`Ext.install("Test"); print(Ext.Greet(7));`))
	assert.Equal(t, "hello 7\n", out.String())
}

func TestRun_ExtOptionalArguments(t *testing.T) {
	in, out, _ := newTestInterp(t)
	require.NoError(t, in.Run(`Ext.install("Test"); print(Ext.Opt(1), Ext.Opt(1, 2), Ext.Opt(1, 2, "z"));`))
	assert.Equal(t, "x xx xxx\n", out.String())

	err := in.Run(`Ext.Opt()`)
	assert.ErrorIs(t, err, ext.ErrMissingArgument)
}

func TestRun_ExtErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
		msg  string
	}{
		{"too many", `Ext.Add(1, 2, 3)`, ext.ErrArity, "too many arguments"},
		{"too few", `Ext.Add(1)`, ext.ErrArity, "too few arguments"},
		{"missing paren", `Ext.Add(1, 2;`, ext.ErrSyntax, "')' expected"},
		{"output type", `s = "str"; Ext.Answer(s)`, ext.ErrTypeMismatch, "expected number, but variable type is string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _, set := newTestInterp(t)
			require.NoError(t, in.Install("Test"))
			err := in.Run(tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.msg)

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, 1, perr.Line)
			assert.Zero(t, set.calls)
		})
	}
}

func TestRun_ExtArgumentEvaluationErrors(t *testing.T) {
	in, _, _ := newTestInterp(t)
	require.NoError(t, in.Install("Test"))

	err := in.Run(`Ext.Add("a", 1)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "number or numeric function expected")

	err = in.Run(`Ext.Answer(1)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variable expected")

	err = in.Run(`Ext.Answer(undefinedVar)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable")
}

func TestRun_HandlerFailureIsNonFatal(t *testing.T) {
	var seen []error
	in, out, _ := newTestInterp(t)
	in.onDiag = func(err error) { seen = append(seen, err) }

	require.NoError(t, in.Run(`Ext.install("Test"); r = Ext.Fail(); print("after", lengthOf(r));`))
	assert.Equal(t, "after 0\n", out.String())
	require.Len(t, in.Diagnostics(), 1)
	assert.ErrorIs(t, in.Diagnostics()[0], ext.ErrHandlerInvocation)
	assert.Contains(t, in.Diagnostics()[0].Error(), "device not ready")
	assert.Len(t, seen, 1)
}

func TestRun_UnknownExtensions(t *testing.T) {
	in, _, _ := newTestInterp(t)

	err := in.Run(`Ext.install("Nope")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown extension set "Nope"`)

	err = in.Run(`Ext.Add(1, 2)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unrecognized Ext function "Add"`)
}

func TestRun_SyntaxErrors(t *testing.T) {
	in, _, _ := newTestInterp(t)
	for _, src := range []string{`a = ;`, `print(1`, `a = 1 2`, `x = y`, `a = newArray(2); a[5] = 1`, `"unterminated`} {
		assert.Error(t, in.Run(src), src)
	}
}

func TestInstallDescriptors(t *testing.T) {
	var out bytes.Buffer
	in := New(ext.NewRegistry(), WithOutput(&out))
	require.NoError(t, in.InstallDescriptors(ext.MustDescriptor("Version", ext.HandlerFunc(func(string, []any) (ext.Result, error) {
		return ext.Text("1.0"), nil
	}))))
	require.NoError(t, in.Run(`print(Ext.Version(), Ext.Version)`))
	assert.Equal(t, "1.0 1.0\n", out.String())
	assert.NotEmpty(t, in.ID)
}

func TestInstall_RejectsReservedName(t *testing.T) {
	echo := ext.HandlerFunc(func(name string, args []any) (ext.Result, error) { return ext.Text(name), nil })
	reg := ext.NewRegistry()
	require.NoError(t, reg.Register("Pkg",
		ext.MustDescriptor("install", echo, ext.ArgString),
		ext.MustDescriptor("Other", echo)))

	in := New(reg)
	err := in.Install("Pkg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"install" is reserved`)

	// the rest of the set is not installed either
	err = in.Run(`Ext.Other()`)
	assert.ErrorContains(t, err, `unrecognized Ext function "Other"`)

	err = in.Run(`Ext.install("Pkg")`)
	assert.ErrorContains(t, err, "reserved")
}

func TestInstall_CapitalizedInstallIsCallable(t *testing.T) {
	var out bytes.Buffer
	in := New(ext.NewRegistry(), WithOutput(&out))
	require.NoError(t, in.InstallDescriptors(ext.MustDescriptor("Install", ext.HandlerFunc(func(string, []any) (ext.Result, error) {
		return ext.Text("ok"), nil
	}))))
	require.NoError(t, in.Run(`print(Ext.Install())`))
	assert.Equal(t, "ok\n", out.String())
}

func TestBuiltinNames(t *testing.T) {
	in, out, _ := newTestInterp(t)
	src := fmt.Sprintf(`a = %s(2); %s(%s(a)); Ext.%s("Test"); %s(Ext.Add(1, 1))`,
		config.NewArrayFuncName, config.PrintFuncName, config.LengthOfFuncName,
		config.InstallFuncName, config.PrintFuncName)
	require.NoError(t, in.Run(src))
	assert.Equal(t, "2\n2\n", out.String())
}

func TestSetVar(t *testing.T) {
	in, out, _ := newTestInterp(t)
	in.SetVar("preset", value.NewString("hi"))
	require.NoError(t, in.Run(`print(preset)`))
	assert.Equal(t, "hi\n", out.String())
}
