package extgen

import (
	"strings"
	"testing"

	"github.com/funvibe/macroext/pkg/ext"
)

func TestParseConfig_ValidMinimal(t *testing.T) {
	yaml := `
sets:
  - name: Math
    pkg: example.com/app/mathext
    type: Math
`
	cfg, err := ParseConfig([]byte(yaml), "extgen.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Package != DefaultPackage {
		t.Errorf("package = %q, want %q", cfg.Package, DefaultPackage)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("output = %q, want %q", cfg.Output, DefaultOutput)
	}
	if len(cfg.Sets) != 1 {
		t.Fatalf("expected 1 set, got %d", len(cfg.Sets))
	}
	if cfg.Sets[0].Prefix != ext.DefaultPrefix {
		t.Errorf("prefix = %q, want %q", cfg.Sets[0].Prefix, ext.DefaultPrefix)
	}
}

func TestParseConfig_Explicit(t *testing.T) {
	yaml := `
package: plugins
output: gen/bindings.go
sets:
  - name: Strings
    pkg: example.com/app/strext
    type: Strings
    prefix: Macro
    exclude_methods: [MacroDebug]
`
	cfg, err := ParseConfig([]byte(yaml), "extgen.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := cfg.Sets[0]
	if cfg.Package != "plugins" || cfg.Output != "gen/bindings.go" {
		t.Errorf("package/output = %q/%q", cfg.Package, cfg.Output)
	}
	if s.Prefix != "Macro" {
		t.Errorf("prefix = %q, want Macro", s.Prefix)
	}
	filter := s.methodFilter()
	if filter("MacroDebug") {
		t.Error("MacroDebug should be excluded")
	}
	if !filter("MacroTrim") {
		t.Error("MacroTrim should be included")
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no sets", "package: x\n", "no sets defined"},
		{"bad package", "package: 9x\nsets:\n  - {name: A, pkg: p, type: T}\n", "not a valid identifier"},
		{"missing name", "sets:\n  - {pkg: p, type: T}\n", "name is required"},
		{"bad name", "sets:\n  - {name: My-Set, pkg: p, type: T}\n", "not a valid identifier"},
		{"missing pkg", "sets:\n  - {name: A, type: T}\n", "pkg is required"},
		{"missing type", "sets:\n  - {name: A, pkg: p}\n", "type is required"},
		{"both filters", "sets:\n  - {name: A, pkg: p, type: T, methods: [X], exclude_methods: [Y]}\n", "mutually exclusive"},
		{"duplicate", "sets:\n  - {name: A, pkg: p, type: T}\n  - {name: A, pkg: q, type: U}\n", "duplicate set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml), "extgen.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestMethodFilter_Whitelist(t *testing.T) {
	s := SetSpec{Methods: []string{"ExtA"}}
	filter := s.methodFilter()
	if !filter("ExtA") || filter("ExtB") {
		t.Error("whitelist not honored")
	}
	if !(&SetSpec{}).methodFilter()("Anything") {
		t.Error("empty filter should accept everything")
	}
}
