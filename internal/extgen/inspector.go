package extgen

import (
	"fmt"
	"go/types"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/funvibe/macroext/pkg/ext"
)

// InspectResult holds the resolved sets, in configuration order.
type InspectResult struct {
	Sets []*SetBinding
}

// SetBinding is one configured set with its method information extracted
// from Go source.
type SetBinding struct {
	Spec SetSpec

	// PkgName is the declared package name of Spec.Pkg.
	PkgName string

	// Methods are the bindable extension methods, sorted by Go name.
	Methods []*MethodInfo

	// Skipped are prefixed methods whose signature has no mapping.
	Skipped []SkippedMethod
}

// MethodInfo describes one extension method.
type MethodInfo struct {
	// GoName is the Go method name (e.g. "ExtAdd").
	GoName string

	// ExtName is the extension function name (e.g. "Add").
	ExtName string

	Params []ParamInfo

	// Result is nil when the method returns nothing but possibly an error.
	Result *ResultInfo

	// HasErrorReturn is true if the last result is error.
	HasErrorReturn bool
}

// ArgTypes returns the descriptor argument types of m.
func (m *MethodInfo) ArgTypes() []ext.ArgType {
	out := make([]ext.ArgType, len(m.Params))
	for i, p := range m.Params {
		out[i] = p.ArgType
	}
	return out
}

// ParamInfo describes one parameter.
type ParamInfo struct {
	// GoType is the parameter type as written in generated code.
	GoType  string
	ArgType ext.ArgType
}

// ResultInfo describes the value result of a method.
type ResultInfo struct {
	GoType string

	// Nilable results that are nil count as no value.
	Nilable bool
}

type SkippedMethod struct {
	GoName string
	Reason error
}

// Inspector loads Go packages and extracts extension methods.
type Inspector struct {
	// dir is where packages are resolved from, normally the directory
	// holding extgen.yaml.
	dir string

	loadedPkgs map[string]*packages.Package
	log        *zap.SugaredLogger
}

// NewInspector creates an inspector resolving packages from dir. A nil log
// discards output.
func NewInspector(dir string, log *zap.SugaredLogger) *Inspector {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Inspector{
		dir:        dir,
		loadedPkgs: make(map[string]*packages.Package),
		log:        log.Named("extgen"),
	}
}

// Inspect loads every package cfg refers to and resolves its sets.
func (ins *Inspector) Inspect(cfg *Config) (*InspectResult, error) {
	if err := ins.loadPackages(collectPackagePaths(cfg)); err != nil {
		return nil, err
	}

	result := &InspectResult{}
	for _, spec := range cfg.Sets {
		pkg, ok := ins.loadedPkgs[spec.Pkg]
		if !ok {
			return nil, fmt.Errorf("set %s: package %s not loaded", spec.Name, spec.Pkg)
		}
		sb, err := inspectSet(pkg.Types, spec)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", spec.Name, err)
		}
		for _, s := range sb.Skipped {
			ins.log.Warnw("skipping extension method", "set", spec.Name, "method", s.GoName, "error", s.Reason)
		}
		ins.log.Debugw("resolved extension set", "set", spec.Name, "functions", len(sb.Methods))
		result.Sets = append(result.Sets, sb)
	}
	return result, nil
}

// loadPackages loads the specified Go packages using go/packages.
func (ins *Inspector) loadPackages(pkgPaths []string) error {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedImports |
			packages.NeedDeps,
		Dir: ins.dir,
		Env: append(os.Environ(), "GOWORK=off"),
	}

	pkgs, err := packages.Load(cfg, pkgPaths...)
	if err != nil {
		return fmt.Errorf("loading packages: %w", err)
	}

	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
		ins.loadedPkgs[pkg.PkgPath] = pkg
	}
	if len(errs) > 0 {
		return fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// inspectSet scans the method set of *T for prefixed methods.
func inspectSet(pkg *types.Package, spec SetSpec) (*SetBinding, error) {
	obj := pkg.Scope().Lookup(spec.Type)
	if obj == nil {
		return nil, fmt.Errorf("type %q not found in package %s", spec.Type, pkg.Path())
	}
	typeName, ok := obj.(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("%q is not a type in package %s", spec.Type, pkg.Path())
	}
	named, ok := typeName.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("%q is not a named type in package %s", spec.Type, pkg.Path())
	}
	if tp := named.TypeParams(); tp != nil && tp.Len() > 0 {
		return nil, fmt.Errorf("generic type %s cannot be bound", spec.Type)
	}

	sb := &SetBinding{Spec: spec, PkgName: pkg.Name()}
	filter := spec.methodFilter()

	mset := types.NewMethodSet(types.NewPointer(named))
	for i := 0; i < mset.Len(); i++ {
		method := mset.At(i).Obj().(*types.Func)
		name := method.Name()
		if !method.Exported() || !strings.HasPrefix(name, spec.Prefix) || len(name) == len(spec.Prefix) {
			continue
		}
		if !filter(name) {
			continue
		}
		info, err := methodInfo(method)
		if err != nil {
			sb.Skipped = append(sb.Skipped, SkippedMethod{GoName: name, Reason: err})
			continue
		}
		info.ExtName = strings.TrimPrefix(name, spec.Prefix)
		sb.Methods = append(sb.Methods, info)
	}

	sort.Slice(sb.Methods, func(i, j int) bool {
		return sb.Methods[i].GoName < sb.Methods[j].GoName
	})
	sort.Slice(sb.Skipped, func(i, j int) bool {
		return sb.Skipped[i].GoName < sb.Skipped[j].GoName
	})
	return sb, nil
}

func methodInfo(method *types.Func) (*MethodInfo, error) {
	sig := method.Type().(*types.Signature)
	if sig.Variadic() {
		return nil, fmt.Errorf("%w: variadic %s", ext.ErrUnsupportedShape, method.Name())
	}

	info := &MethodInfo{GoName: method.Name()}
	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		t := params.At(i).Type()
		at, err := argTypeOf(t)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		info.Params = append(info.Params, ParamInfo{GoType: nativeTypes[at], ArgType: at})
	}

	results := sig.Results()
	switch results.Len() {
	case 0:
	case 1:
		t := results.At(0).Type()
		if isErrorType(t) {
			info.HasErrorReturn = true
		} else {
			info.Result = resultInfo(t)
		}
	case 2:
		if !isErrorType(results.At(1).Type()) {
			return nil, fmt.Errorf("%w: results %s, %s", ext.ErrUnsupportedShape,
				results.At(0).Type(), results.At(1).Type())
		}
		info.Result = resultInfo(results.At(0).Type())
		info.HasErrorReturn = true
	default:
		return nil, fmt.Errorf("%w: %d results", ext.ErrUnsupportedShape, results.Len())
	}
	return info, nil
}

var (
	float64Type  = types.Typ[types.Float64]
	stringType   = types.Typ[types.String]
	float64Slice = types.NewSlice(float64Type)
	stringSlice  = types.NewSlice(stringType)
	anySlice     = types.NewSlice(types.NewInterfaceType(nil, nil))
	errorType    = types.Universe.Lookup("error").Type()
)

// nativeTypes are the Go types arguments arrive as, by ArgType.
var nativeTypes = map[ext.ArgType]string{
	ext.ArgNumber:                 "float64",
	ext.ArgNumber | ext.ArgOutput: "[]float64",
	ext.ArgString:                 "string",
	ext.ArgString | ext.ArgOutput: "[]string",
	ext.ArgArray:                  "[]any",
}

// argTypeOf maps a parameter type the same way ext.ArgTypeFor does.
func argTypeOf(t types.Type) (ext.ArgType, error) {
	switch {
	case types.Identical(t, float64Type):
		return ext.ArgNumber, nil
	case types.Identical(t, float64Slice):
		return ext.ArgNumber | ext.ArgOutput, nil
	case types.Identical(t, stringType):
		return ext.ArgString, nil
	case types.Identical(t, stringSlice):
		return ext.ArgString | ext.ArgOutput, nil
	case types.Identical(t, anySlice):
		return ext.ArgArray, nil
	default:
		return 0, fmt.Errorf("%w: %s", ext.ErrUnsupportedShape, t)
	}
}

func isErrorType(t types.Type) bool {
	return types.Identical(t, errorType)
}

func resultInfo(t types.Type) *ResultInfo {
	ri := &ResultInfo{GoType: types.TypeString(t, nil)}
	switch t.Underlying().(type) {
	case *types.Pointer, *types.Interface, *types.Slice, *types.Map:
		ri.Nilable = true
	}
	return ri
}

func collectPackagePaths(cfg *Config) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, s := range cfg.Sets {
		if !seen[s.Pkg] {
			paths = append(paths, s.Pkg)
			seen[s.Pkg] = true
		}
	}
	return paths
}
