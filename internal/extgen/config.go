// Package extgen generates compile-time extension bindings.
//
// Where ext.Synthesize discovers extension methods through reflection when
// an instance is registered, extgen reads the same methods from Go source
// with go/packages and emits a Go file whose adapters call them directly.
// Both paths produce identical descriptors.
//
// The generator is driven by extgen.yaml:
//
//	package: bindings
//	output: ext_bindings.go
//	sets:
//	  - name: Math
//	    pkg: example.com/app/mathext
//	    type: Math
package extgen

import (
	"fmt"
	"go/token"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/macroext/pkg/ext"
)

const (
	DefaultPackage = "bindings"
	DefaultOutput  = "ext_bindings.go"
)

// Config represents the top-level extgen.yaml configuration.
type Config struct {
	// Package is the package clause of the generated file.
	Package string `yaml:"package,omitempty"`

	// Output is the generated file, relative to extgen.yaml.
	Output string `yaml:"output,omitempty"`

	// Sets lists the extension sets to bind.
	Sets []SetSpec `yaml:"sets"`
}

// SetSpec binds the extension methods of one Go type as an extension set.
type SetSpec struct {
	// Name is the extension set name used with Ext.install. It also names
	// the generated <Name>Descriptors function.
	Name string `yaml:"name"`

	// Pkg is the Go import path declaring Type.
	Pkg string `yaml:"pkg"`

	// Type is the Go type whose pointer method set is scanned.
	Type string `yaml:"type"`

	// Prefix marks extension methods. Defaults to ext.DefaultPrefix.
	Prefix string `yaml:"prefix,omitempty"`

	// Methods is an optional whitelist of Go method names.
	Methods []string `yaml:"methods,omitempty"`

	// ExcludeMethods is an optional blacklist of Go method names.
	ExcludeMethods []string `yaml:"exclude_methods,omitempty"`
}

// LoadConfig reads and parses an extgen.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses extgen.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) validate(path string) error {
	if len(c.Sets) == 0 {
		return fmt.Errorf("%s: no sets defined", path)
	}
	if c.Package != "" && !token.IsIdentifier(c.Package) {
		return fmt.Errorf("%s: package %q is not a valid identifier", path, c.Package)
	}

	seen := make(map[string]bool)
	for i, s := range c.Sets {
		switch {
		case s.Name == "":
			return fmt.Errorf("%s: sets[%d]: name is required", path, i)
		case !token.IsIdentifier(s.Name):
			return fmt.Errorf("%s: sets[%d]: name %q is not a valid identifier", path, i, s.Name)
		case s.Pkg == "":
			return fmt.Errorf("%s: sets[%d] (%s): pkg is required", path, i, s.Name)
		case s.Type == "":
			return fmt.Errorf("%s: sets[%d] (%s): type is required", path, i, s.Name)
		case len(s.Methods) > 0 && len(s.ExcludeMethods) > 0:
			return fmt.Errorf("%s: sets[%d] (%s): methods and exclude_methods are mutually exclusive", path, i, s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("%s: sets[%d]: duplicate set %q", path, i, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Package == "" {
		c.Package = DefaultPackage
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	for i := range c.Sets {
		if c.Sets[i].Prefix == "" {
			c.Sets[i].Prefix = ext.DefaultPrefix
		}
	}
}

// methodFilter returns a predicate over Go method names honoring the
// set's methods/exclude_methods lists.
func (s *SetSpec) methodFilter() func(string) bool {
	if len(s.Methods) > 0 {
		allowed := make(map[string]bool, len(s.Methods))
		for _, m := range s.Methods {
			allowed[m] = true
		}
		return func(name string) bool { return allowed[name] }
	}
	if len(s.ExcludeMethods) > 0 {
		excluded := make(map[string]bool, len(s.ExcludeMethods))
		for _, m := range s.ExcludeMethods {
			excluded[m] = true
		}
		return func(name string) bool { return !excluded[name] }
	}
	return func(string) bool { return true }
}
