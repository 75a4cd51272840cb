// Package stdext provides the built-in extension sets. Each set is a plain
// Go type whose Ext-prefixed methods are turned into extension functions
// by ext.Synthesize.
package stdext

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/funvibe/macroext/pkg/ext"
)

// Set names.
const (
	MathSet    = "Math"
	StringsSet = "Strings"
	SQLSet     = "SQL"
)

// Sets holds the instances behind the built-in extension sets.
type Sets struct {
	Math    *Math
	Strings *Strings
	SQL     *SQL
}

// Register synthesizes the built-in sets into reg. The SQL set opens an
// in-memory database on first use; call Sets.Close when done.
func Register(reg *ext.Registry, log *zap.SugaredLogger) (*Sets, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	sets := &Sets{
		Math:    &Math{},
		Strings: &Strings{},
		SQL:     NewSQL(log),
	}
	for _, s := range []struct {
		name string
		inst any
	}{
		{MathSet, sets.Math},
		{StringsSet, sets.Strings},
		{SQLSet, sets.SQL},
	} {
		descs, err := ext.Synthesize(s.name, s.inst, ext.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := reg.Register(s.name, descs...); err != nil {
			return nil, fmt.Errorf("registering %s: %w", s.name, err)
		}
	}
	return sets, nil
}

// Close releases the SQL set's database.
func (s *Sets) Close() error {
	return s.SQL.ExtClose()
}

var errEmptyArray = errors.New("empty array")
