package extgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Outcome reports what Generate did.
type Outcome struct {
	// Path is the generated file.
	Path string

	// Changed is false when the file already had the generated content.
	Changed bool

	Sets    int
	Funcs   int
	Skipped int
}

// Generate reads the extgen.yaml at configPath, inspects the bound packages
// and writes the binding file. An up-to-date file is left untouched.
func Generate(configPath string, log *zap.SugaredLogger) (*Outcome, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(configPath)

	res, err := NewInspector(dir, log).Inspect(cfg)
	if err != nil {
		return nil, err
	}
	src, err := NewCodeGenerator(cfg.Package).Generate(res)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Path: cfg.Output, Sets: len(res.Sets)}
	if !filepath.IsAbs(out.Path) {
		out.Path = filepath.Join(dir, out.Path)
	}
	for _, sb := range res.Sets {
		out.Funcs += len(sb.Methods)
		out.Skipped += len(sb.Skipped)
	}

	if old, err := os.ReadFile(out.Path); err == nil && bytes.Equal(old, src) {
		return out, nil
	}
	if err := os.MkdirAll(filepath.Dir(out.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(out.Path, src, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", out.Path, err)
	}
	out.Changed = true
	return out, nil
}
