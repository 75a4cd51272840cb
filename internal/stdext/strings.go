package stdext

import (
	"strings"
	"unicode/utf8"

	"github.com/funvibe/macroext/pkg/ext"
)

// Strings is the "Strings" extension set.
type Strings struct{}

func (Strings) ExtUpper(s string) string { return strings.ToUpper(s) }

func (Strings) ExtLower(s string) string { return strings.ToLower(s) }

func (Strings) ExtTrim(s string) string { return strings.TrimSpace(s) }

func (Strings) ExtReplace(s, old, repl string) string {
	return strings.ReplaceAll(s, old, repl)
}

// ExtIndexOf returns the rune index of sub in s, or -1.
func (Strings) ExtIndexOf(s, sub string) float64 {
	i := strings.Index(s, sub)
	if i < 0 {
		return -1
	}
	return float64(utf8.RuneCountInString(s[:i]))
}

// ExtJoin joins the elements of values with sep.
func (Strings) ExtJoin(values []any, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = ext.FormatResult(v)
	}
	return strings.Join(parts, sep)
}

// ExtSplitFirst stores the text before the first sep in head and the
// remainder in tail. Without sep, head is s and tail is empty.
func (Strings) ExtSplitFirst(s, sep string, head, tail []string) {
	h, t, _ := strings.Cut(s, sep)
	head[0], tail[0] = h, t
}

// ExtPadLeft pads the string in s with spaces to width runes.
func (Strings) ExtPadLeft(s []string, width float64) {
	if n := int(width) - utf8.RuneCountInString(s[0]); n > 0 {
		s[0] = strings.Repeat(" ", n) + s[0]
	}
}
