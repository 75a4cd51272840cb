package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

type styles struct {
	color bool

	err  lipgloss.Style
	warn lipgloss.Style
	set  lipgloss.Style
	dim  lipgloss.Style
}

// newStyles colors output only when w is a terminal.
func newStyles(w io.Writer) styles {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return styles{
		color: color,
		err:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		set:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func (s styles) render(st lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return st.Render(text)
}

func (s styles) errorf(format string, args ...any) string {
	return s.render(s.err, fmt.Sprintf(format, args...))
}

func (s styles) warnf(format string, args ...any) string {
	return s.render(s.warn, fmt.Sprintf(format, args...))
}
