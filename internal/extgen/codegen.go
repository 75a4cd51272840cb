package extgen

import (
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/funvibe/macroext/pkg/ext"
)

// ExtImportPath is the import path generated bindings use for pkg/ext.
const ExtImportPath = "github.com/funvibe/macroext/pkg/ext"

// CodeGenerator produces the Go source of a binding file.
type CodeGenerator struct {
	pkgName string
}

// NewCodeGenerator creates a generator emitting package pkgName.
func NewCodeGenerator(pkgName string) *CodeGenerator {
	return &CodeGenerator{pkgName: pkgName}
}

type importEntry struct {
	Path  string
	Alias string
}

type generatedFunc struct {
	ExtName  string
	ArgTypes []string
	GoCode   string
}

type generatedSet struct {
	// SetName is the extension set name as configured; Name is its
	// identifier form.
	SetName string
	Name    string
	TypeRef string
	Funcs   []generatedFunc
}

// Generate renders result as one gofmt'ed Go file.
func (cg *CodeGenerator) Generate(result *InspectResult) ([]byte, error) {
	imports := make(map[string]string) // path → alias
	used := map[string]bool{"ext": true}
	var sets []generatedSet

	for _, sb := range result.Sets {
		alias, ok := imports[sb.Spec.Pkg]
		if !ok {
			alias = uniqueAlias(ImportAlias(sb.Spec.Pkg), used)
			imports[sb.Spec.Pkg] = alias
		}
		gs := generatedSet{
			SetName: sb.Spec.Name,
			Name:    identifier(sb.Spec.Name),
			TypeRef: alias + "." + sb.Spec.Type,
		}
		for _, m := range sb.Methods {
			gs.Funcs = append(gs.Funcs, generatedFunc{
				ExtName:  m.ExtName,
				ArgTypes: argTypeExprs(m.ArgTypes()),
				GoCode:   strings.TrimSuffix(methodBody(m), "\n"),
			})
		}
		sets = append(sets, gs)
	}

	entries := make([]importEntry, 0, len(imports))
	for path, alias := range imports {
		entries = append(entries, importEntry{Path: path, Alias: alias})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	tmpl, err := template.New("bindings").Parse(bindingFileTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	data := struct {
		Package string
		ExtPath string
		Imports []importEntry
		Sets    []generatedSet
	}{
		Package: cg.pkgName,
		ExtPath: ExtImportPath,
		Imports: entries,
		Sets:    sets,
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	src, err := format.Source([]byte(buf.String()))
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w\n%s", err, buf.String())
	}
	return src, nil
}

// methodBody is the MethodFunc body calling m on inst. Argument shapes
// are guaranteed by dispatch, so the assertions are unchecked.
func methodBody(m *MethodInfo) string {
	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		args[i] = fmt.Sprintf("args[%d].(%s)", i, p.GoType)
	}
	call := fmt.Sprintf("inst.%s(%s)", m.GoName, strings.Join(args, ", "))

	var b strings.Builder
	switch {
	case m.Result == nil && !m.HasErrorReturn:
		fmt.Fprintf(&b, "%s\nreturn nil, nil\n", call)
	case m.Result == nil:
		fmt.Fprintf(&b, "return nil, %s\n", call)
	case !m.HasErrorReturn && !m.Result.Nilable:
		fmt.Fprintf(&b, "return %s, nil\n", call)
	case !m.HasErrorReturn:
		fmt.Fprintf(&b, "r := %s\nif r == nil {\nreturn nil, nil\n}\nreturn r, nil\n", call)
	default:
		fmt.Fprintf(&b, "r, err := %s\nif err != nil {\nreturn nil, err\n}\n", call)
		if m.Result.Nilable {
			b.WriteString("if r == nil {\nreturn nil, nil\n}\n")
		}
		b.WriteString("return r, nil\n")
	}
	return b.String()
}

func argTypeExprs(types []ext.ArgType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		parts := []string{}
		switch ext.Raw(t) {
		case ext.ArgString:
			parts = append(parts, "ext.ArgString")
		case ext.ArgNumber:
			parts = append(parts, "ext.ArgNumber")
		case ext.ArgArray:
			parts = append(parts, "ext.ArgArray")
		}
		if ext.IsOutput(t) {
			parts = append(parts, "ext.ArgOutput")
		}
		if ext.IsOptional(t) {
			parts = append(parts, "ext.ArgOptional")
		}
		out[i] = strings.Join(parts, "|")
	}
	return out
}

// reservedAliases are identifiers import aliases must not take.
var reservedAliases = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
	// used by generated code
	"ext": true, "inst": true, "args": true, "err": true, "r": true, "reg": true,
}

// ImportAlias returns a valid Go identifier for an import path.
// Handles hyphens (go-redis → goredis), versioned paths (v9 → parent),
// and reserved words (go → pkgGo).
func ImportAlias(pkgPath string) string {
	parts := strings.Split(pkgPath, "/")
	last := parts[len(parts)-1]
	if len(last) > 1 && last[0] == 'v' && len(parts) > 1 && strings.Trim(last[1:], "0123456789") == "" {
		last = parts[len(parts)-2]
	}

	alias := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, last)

	if alias == "" || unicode.IsDigit(rune(alias[0])) {
		alias = "pkg" + alias
	}
	if reservedAliases[alias] {
		alias = "pkg" + strings.ToUpper(alias[:1]) + alias[1:]
	}
	return alias
}

func uniqueAlias(alias string, used map[string]bool) string {
	candidate := alias
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s%d", alias, n)
	}
	used[candidate] = true
	return candidate
}

// identifier returns a valid Go identifier for a string.
func identifier(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, s)
}

const bindingFileTemplate = `// Code generated by macroext gen. DO NOT EDIT.

package {{.Package}}

import (
	"{{.ExtPath}}"
{{- range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)
{{range .Sets}}
// {{.Name}}Descriptors returns the {{.Name}} extension set bound to inst.
func {{.Name}}Descriptors(inst *{{.TypeRef}}) []*ext.Descriptor {
	return []*ext.Descriptor{
{{- range .Funcs}}
		ext.MustDescriptor("{{.ExtName}}", ext.NewMethodHandler("{{.ExtName}}", func(args []any) (any, error) {
{{.GoCode}}
		}, nil){{range .ArgTypes}}, {{.}}{{end}}),
{{- end}}
	}
}

// Register{{.Name}} registers the {{.Name}} extension set bound to inst into
// reg, or into ext.DefaultRegistry when reg is nil.
func Register{{.Name}}(reg *ext.Registry, inst *{{.TypeRef}}) error {
	if reg == nil {
		reg = ext.DefaultRegistry
	}
	return reg.Register({{printf "%q" .SetName}}, {{.Name}}Descriptors(inst)...)
}
{{end}}`
