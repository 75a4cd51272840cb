// Package config holds macroext's constants and the macroext.yaml runtime
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level macroext.yaml configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Extensions ExtensionsConfig `yaml:"extensions"`

	// Remote lists extension sets served over gRPC.
	Remote []Remote `yaml:"remote,omitempty"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

type ExtensionsConfig struct {
	// Enable lists the extension sets installed before a macro runs, as if
	// it began with Ext.install for each.
	Enable []string `yaml:"enable,omitempty"`
}

// Remote describes one extension set backed by a gRPC service.
type Remote struct {
	// Set is the extension set name used with Ext.install.
	Set string `yaml:"set"`

	// Target is the gRPC dial target (e.g. "localhost:50051").
	Target string `yaml:"target"`

	// Proto is the .proto file declaring Service, relative to ImportPaths.
	Proto string `yaml:"proto"`

	// Service is the fully-qualified service name (e.g. "calc.Calculator").
	Service string `yaml:"service"`

	// ImportPaths are searched for Proto and its imports. Relative paths
	// are resolved against the config file's directory. Defaults to it.
	ImportPaths []string `yaml:"import_paths,omitempty"`

	// TimeoutSeconds bounds dialing. Defaults to DefaultDialTimeoutSeconds.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// Load reads and parses a macroext.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses macroext.yaml content. The path is used for error messages
// and to resolve relative import paths.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults(filepath.Dir(path))
	return &cfg, nil
}

// Find searches for macroext.yaml starting from dir and walking up to
// parent directories. It returns "" and a nil error when there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	seen := make(map[string]bool)
	for i, r := range c.Remote {
		switch {
		case r.Set == "":
			return fmt.Errorf("%s: remote[%d]: set is required", path, i)
		case r.Target == "":
			return fmt.Errorf("%s: remote[%d] (%s): target is required", path, i, r.Set)
		case r.Proto == "":
			return fmt.Errorf("%s: remote[%d] (%s): proto is required", path, i, r.Set)
		case r.Service == "":
			return fmt.Errorf("%s: remote[%d] (%s): service is required", path, i, r.Set)
		case r.TimeoutSeconds < 0:
			return fmt.Errorf("%s: remote[%d] (%s): timeout_seconds must not be negative", path, i, r.Set)
		}
		if !strings.Contains(r.Service, ".") {
			return fmt.Errorf("%s: remote[%d] (%s): service %q must be fully qualified", path, i, r.Set, r.Service)
		}
		if seen[r.Set] {
			return fmt.Errorf("%s: remote[%d]: duplicate set %q", path, i, r.Set)
		}
		seen[r.Set] = true
	}
	for i, name := range c.Extensions.Enable {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%s: extensions.enable[%d]: empty set name", path, i)
		}
	}
	return nil
}

func (c *Config) setDefaults(configDir string) {
	for i := range c.Remote {
		r := &c.Remote[i]
		if len(r.ImportPaths) == 0 {
			r.ImportPaths = []string{"."}
		}
		for j, p := range r.ImportPaths {
			if !filepath.IsAbs(p) {
				r.ImportPaths[j] = filepath.Join(configDir, p)
			}
		}
		if r.TimeoutSeconds == 0 {
			r.TimeoutSeconds = DefaultDialTimeoutSeconds
		}
	}
}
