package ext

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/macroext/pkg/value"
)

type squarer struct{}

func (squarer) ExtSquare(x float64) float64 { return x * x }

type mixed struct {
	last string
}

func (m *mixed) ExtConcat(a, b string) string { return a + b }
func (m *mixed) ExtBad(ch chan int) string { return "" }
func (m *mixed) ExtRemember(s string) { m.last = s }
func (m *mixed) ExtFill(out []float64, s []string) { out[0] = 3; s[0] = "filled" }
func (m *mixed) ExtCount(items []any) float64 { return float64(len(items)) }
func (m *mixed) ExtFail(x float64) (string, error) {
	if x < 0 {
		return "", errors.New("negative input")
	}
	return fmt.Sprint(x), nil
}
func (m *mixed) ExtBoom() string { panic("kaboom") }
func (m *mixed) ExtTwo() (string, string) { return "a", "b" }
func (m *mixed) Helper(x float64) float64 { return x }

func TestSynthesize_SingleNumberMethod(t *testing.T) {
	descs, err := Synthesize("Sq", squarer{})
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "Square", descs[0].Name)
	assert.Equal(t, []ArgType{ArgNumber}, descs[0].ArgTypes)

	res, err := descs[0].Handler.Handle("Square", []any{3.0})
	require.NoError(t, err)
	assert.Equal(t, Text("9"), res)
}

func TestSynthesize_UnsupportedShapeSkipsOnlyThatMethod(t *testing.T) {
	descs, err := Synthesize("Mixed", &mixed{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedShape)
	assert.Contains(t, err.Error(), "ExtBad")
	assert.Contains(t, err.Error(), "chan int")
	assert.Contains(t, err.Error(), "ExtTwo")

	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"Boom", "Concat", "Count", "Fail", "Fill", "Remember"}, names)
}

func TestSynthesize_TypeMapping(t *testing.T) {
	descs, _ := Synthesize("Mixed", &mixed{})
	byName := map[string]*Descriptor{}
	for _, d := range descs {
		byName[d.Name] = d
	}
	assert.Equal(t, []ArgType{ArgString, ArgString}, byName["Concat"].ArgTypes)
	assert.Equal(t, []ArgType{ArgNumber | ArgOutput, ArgString | ArgOutput}, byName["Fill"].ArgTypes)
	assert.Equal(t, []ArgType{ArgArray}, byName["Count"].ArgTypes)
	assert.Empty(t, byName["Boom"].ArgTypes)
}

func TestSynthesize_Prefix(t *testing.T) {
	descs, err := Synthesize("Mixed", &mixed{}, WithPrefix("Help"))
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "er", descs[0].Name)
}

func TestSynthesize_NilInstance(t *testing.T) {
	_, err := Synthesize("None", nil)
	assert.Error(t, err)
}

func TestArgTypeFor(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want ArgType
	}{
		{reflect.TypeOf(0.0), ArgNumber},
		{reflect.TypeOf([]float64{}), ArgNumber | ArgOutput},
		{reflect.TypeOf(""), ArgString},
		{reflect.TypeOf([]string{}), ArgString | ArgOutput},
		{reflect.TypeOf([]any{}), ArgArray},
	}
	for _, tt := range tests {
		got, err := ArgTypeFor(tt.typ)
		require.NoError(t, err, tt.typ.String())
		assert.Equal(t, tt.want, got, tt.typ.String())
	}
	for _, bad := range []reflect.Type{reflect.TypeOf(0), reflect.TypeOf(float32(0)), reflect.TypeOf(map[string]any{})} {
		_, err := ArgTypeFor(bad)
		assert.ErrorIs(t, err, ErrUnsupportedShape, bad.String())
	}
}

func TestMethodHandler_Adapter(t *testing.T) {
	m := &mixed{}
	descs, _ := Synthesize("Mixed", m)
	byName := map[string]*Descriptor{}
	for _, d := range descs {
		byName[d.Name] = d
	}

	res, err := byName["Remember"].Handler.Handle("Remember", []any{"x"})
	require.NoError(t, err)
	assert.False(t, res.Valid, "a method without results returns nothing")
	assert.Equal(t, "x", m.last)

	_, err = byName["Fail"].Handler.Handle("Fail", []any{-1.0})
	assert.ErrorIs(t, err, ErrHandlerInvocation)
	assert.Contains(t, err.Error(), "negative input")

	_, err = byName["Boom"].Handler.Handle("Boom", []any{})
	assert.ErrorIs(t, err, ErrHandlerInvocation)
	assert.Contains(t, err.Error(), "kaboom")

	res, err = byName["Fail"].Handler.Handle("Fail", []any{2.0})
	require.NoError(t, err, "a failed call leaves the adapter usable")
	assert.Equal(t, "2", res.Text)

	_, err = byName["Fail"].Handler.Handle("Concat", []any{"a", "b"})
	assert.ErrorIs(t, err, ErrHandlerInvocation)
	assert.Contains(t, err.Error(), "only handles Fail")
}

func TestSynthesize_DispatchOutputs(t *testing.T) {
	descs, _ := Synthesize("Mixed", &mixed{})
	var fill *Descriptor
	for _, d := range descs {
		if d.Name == "Fill" {
			fill = d
		}
	}
	require.NotNil(t, fill)

	n, s := value.NewNumber(0), value.NewString("")
	_, err := fill.Dispatch(site(lp, n, comma, s, rp))
	require.NoError(t, err)
	assert.True(t, n.Equal(value.NewNumber(3)))
	assert.True(t, s.Equal(value.NewString("filled")))
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "1.5", FormatResult(1.5))
	assert.Equal(t, "abc", FormatResult("abc"))
	assert.Equal(t, "7", FormatResult(7))
	assert.Equal(t, "1,2", FormatResult(value.NewArray(value.NewNumber(1), value.NewNumber(2))))
}
