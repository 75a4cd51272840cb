// Package interp is a small macro interpreter that evaluates while it
// parses, in the style of ImageJ macros. It exists to host extension
// functions: `Ext.install("Set")` makes a registered extension set
// callable as `Ext.name(args)`. Because Ext.install is resolved before the
// installed functions, no extension function may be named install.
package interp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/funvibe/macroext/internal/config"
	"github.com/funvibe/macroext/internal/lexer"
	"github.com/funvibe/macroext/internal/token"
	"github.com/funvibe/macroext/pkg/ext"
	"github.com/funvibe/macroext/pkg/value"
)

// ExtObject is the identifier extension calls are made through.
const ExtObject = "Ext"

// Error is a macro error with its source position.
type Error struct {
	Line   int
	Column int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d:%d: %v", e.Line, e.Column, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Interpreter holds the variables and installed extensions of one macro
// session. It is not safe for concurrent use.
type Interpreter struct {
	// ID identifies the session in logs.
	ID string

	registry  *ext.Registry
	installed map[string]*ext.Descriptor
	vars      map[string]*value.Variable
	out       io.Writer
	log       *zap.SugaredLogger
	onDiag    func(error)
	diags     []error

	toks []token.Token
	pos  int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sets where print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(in *Interpreter) { in.log = log }
}

// WithDiagnostics registers a callback for non-fatal extension failures.
func WithDiagnostics(fn func(error)) Option {
	return func(in *Interpreter) { in.onDiag = fn }
}

// New creates an interpreter resolving Ext.install against reg. A nil reg
// means ext.DefaultRegistry.
func New(reg *ext.Registry, opts ...Option) *Interpreter {
	if reg == nil {
		reg = ext.DefaultRegistry
	}
	in := &Interpreter{
		ID:        uuid.NewString(),
		registry:  reg,
		installed: make(map[string]*ext.Descriptor),
		vars:      make(map[string]*value.Variable),
		out:       os.Stdout,
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.log = in.log.Named("interp").With("session", in.ID)
	return in
}

// Install makes every function of the extension set callable.
func (in *Interpreter) Install(set string) error {
	descs, ok := in.registry.Set(set)
	if !ok {
		return fmt.Errorf("unknown extension set %q", set)
	}
	if err := in.InstallDescriptors(descs...); err != nil {
		return fmt.Errorf("extension set %q: %w", set, err)
	}
	in.log.Debugw("installed extension set", "set", set, "functions", len(descs))
	return nil
}

// InstallDescriptors makes descs callable without a registry. Nothing is
// installed if one of them is named install.
func (in *Interpreter) InstallDescriptors(descs ...*ext.Descriptor) error {
	for _, d := range descs {
		if d.Name == config.InstallFuncName {
			return fmt.Errorf("function name %q is reserved for Ext.%s", d.Name, config.InstallFuncName)
		}
	}
	for _, d := range descs {
		in.installed[d.Name] = d
	}
	return nil
}

// Var returns the named variable's slot.
func (in *Interpreter) Var(name string) (*value.Variable, bool) {
	v, ok := in.vars[name]
	return v, ok
}

// SetVar binds name to a copy of v.
func (in *Interpreter) SetVar(name string, v *value.Variable) {
	in.assign(name, v)
}

// Diagnostics returns the non-fatal errors reported so far.
func (in *Interpreter) Diagnostics() []error {
	return in.diags
}

// Run executes src. Variables persist between runs.
func (in *Interpreter) Run(src string) error {
	in.toks = lexer.Tokenize(src)
	in.pos = 0
	for in.cur().Type != token.EOF {
		if err := in.statement(); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) report(err error) {
	in.diags = append(in.diags, err)
	in.log.Warnw("extension diagnostic", "error", err)
	if in.onDiag != nil {
		in.onDiag(err)
	}
}

func (in *Interpreter) cur() token.Token {
	if in.pos >= len(in.toks) {
		return in.toks[len(in.toks)-1]
	}
	return in.toks[in.pos]
}

func (in *Interpreter) peekAt(n int) token.Token {
	if in.pos+n >= len(in.toks) {
		return in.toks[len(in.toks)-1]
	}
	return in.toks[in.pos+n]
}

func (in *Interpreter) advance() token.Token {
	tok := in.cur()
	if in.pos < len(in.toks) {
		in.pos++
	}
	return tok
}

func (in *Interpreter) errorAt(tok token.Token, err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Line: tok.Line, Column: tok.Column, Err: err}
}

func (in *Interpreter) errorf(tok token.Token, format string, args ...interface{}) error {
	return in.errorAt(tok, fmt.Errorf(format, args...))
}

func (in *Interpreter) expect(tt token.TokenType) (token.Token, error) {
	tok := in.cur()
	if tok.Type != tt {
		return tok, in.errorf(tok, "'%s' expected, found %s", tt, describe(tok))
	}
	in.advance()
	return tok, nil
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of macro"
	case token.ILLEGAL:
		if msg, ok := tok.Literal.(string); ok && len(msg) > 1 {
			return fmt.Sprintf("%q (%s)", tok.Lexeme, msg)
		}
		return fmt.Sprintf("%q", tok.Lexeme)
	default:
		return fmt.Sprintf("%q", tok.Lexeme)
	}
}

// assign binds name to v. Scalars are copied; arrays keep sharing their
// element slots, as macro arrays are references.
func (in *Interpreter) assign(name string, v *value.Variable) {
	if v.Kind() == value.Array {
		in.vars[name] = value.NewArray(v.Array()...)
		return
	}
	in.vars[name] = v.Copy()
}

func (in *Interpreter) print(vals []*value.Variable) {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	fmt.Fprintln(in.out, strings.Join(parts, " "))
}
