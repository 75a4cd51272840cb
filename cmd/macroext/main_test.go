package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand("test")
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "macroext.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRun_Eval(t *testing.T) {
	cfg := writeConfig(t, "extensions:\n  enable: [Math]\n")
	out, _, err := execute(t, "--config", cfg, "run", "-e", `print(Ext.Abs(-2), Ext.Clamp(12, 0, 10))`)
	require.NoError(t, err)
	assert.Equal(t, "2 10\n", out)
}

func TestRun_EnableFlag(t *testing.T) {
	cfg := writeConfig(t, "{}\n")
	out, _, err := execute(t, "--config", cfg, "run", "--enable", "Strings", "-e", `print(Ext.Upper("abc"))`)
	require.NoError(t, err)
	assert.Equal(t, "ABC\n", out)
}

func TestRun_File(t *testing.T) {
	cfg := writeConfig(t, "{}\n")
	macro := filepath.Join(t.TempDir(), "m.ijm")
	require.NoError(t, os.WriteFile(macro, []byte(`
Ext.install("Math")
q = 0; r = 0
Ext.DivMod(17, 5, q, r)
print(q, r)
`), 0o644))

	out, _, err := execute(t, "--config", cfg, "run", macro)
	require.NoError(t, err)
	assert.Equal(t, "3 2\n", out)
}

func TestRun_DiagnosticsGoToStderr(t *testing.T) {
	cfg := writeConfig(t, "{}\n")
	out, errOut, err := execute(t, "--config", cfg, "run", "-e", `Ext.install("Math"); Ext.Sqrt(-1); print("done")`)
	require.NoError(t, err)
	assert.Equal(t, "done\n", out)
	assert.Contains(t, errOut, "warning:")
}

func TestRun_Errors(t *testing.T) {
	cfg := writeConfig(t, "{}\n")

	_, _, err := execute(t, "--config", cfg, "run")
	assert.ErrorContains(t, err, "no macro file given")

	_, _, err = execute(t, "--config", cfg, "run", "-e", "print(1)", "x.ijm")
	assert.ErrorContains(t, err, "not both")

	_, _, err = execute(t, "--config", cfg, "run", "-e", `Ext.Abs(1)`)
	assert.ErrorContains(t, err, `unrecognized Ext function "Abs"`)

	_, _, err = execute(t, "--config", cfg, "run", "--enable", "Nope", "-e", "print(1)")
	assert.ErrorContains(t, err, `unknown extension set "Nope"`)
}

func TestList(t *testing.T) {
	cfg := writeConfig(t, "{}\n")
	out, _, err := execute(t, "--config", cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Math (7)")
	assert.Contains(t, out, "  Ext.Clamp(number, number, number)")
	assert.Contains(t, out, "  Ext.SplitFirst(string, string, string+output, string+output)")
	assert.Contains(t, out, "SQL")

	out, _, err = execute(t, "--config", cfg, "list", "Strings")
	require.NoError(t, err)
	assert.NotContains(t, out, "Math")

	_, _, err = execute(t, "--config", cfg, "list", "Nope")
	assert.ErrorContains(t, err, `unknown extension set "Nope"`)
}

func TestBadConfig(t *testing.T) {
	cfg := writeConfig(t, "remote:\n  - set: X\n")
	_, _, err := execute(t, "--config", cfg, "list")
	assert.Error(t, err)
}

func TestGen_MissingConfig(t *testing.T) {
	cfg := writeConfig(t, "{}\n")
	_, _, err := execute(t, "--config", cfg, "gen", filepath.Join(t.TempDir(), "extgen.yaml"))
	assert.Error(t, err)
}
