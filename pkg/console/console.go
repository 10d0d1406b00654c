// Package console prints the colored status lines used by the harness and
// the test child: flow, ok, warn, error and dimmed secondary text.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gkampitakis/ciinfo"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ColorMode selects when escape sequences are emitted.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a color mode name.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	case "":
		return ColorAuto, nil
	default:
		return ColorAuto, fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
	}
}

// 256-color palette.
const (
	colorFlow = "39"
	colorOK   = "82"
	colorWarn = "214"
	colorErr  = "196"
)

// Console writes styled lines. Error lines go to the error writer.
type Console struct {
	out io.Writer
	err io.Writer

	flow lipgloss.Style
	ok   lipgloss.Style
	warn lipgloss.Style
	dim  lipgloss.Style
	fail lipgloss.Style
}

// New creates a Console for the given writers.
func New(out, errw io.Writer, mode ColorMode) *Console {
	ro := lipgloss.NewRenderer(out)
	ro.SetColorProfile(profileFor(out, mode))
	re := lipgloss.NewRenderer(errw)
	re.SetColorProfile(profileFor(errw, mode))

	return &Console{
		out:  out,
		err:  errw,
		flow: ro.NewStyle().Foreground(lipgloss.Color(colorFlow)),
		ok:   ro.NewStyle().Foreground(lipgloss.Color(colorOK)),
		warn: ro.NewStyle().Foreground(lipgloss.Color(colorWarn)),
		dim:  ro.NewStyle().Faint(true),
		fail: re.NewStyle().Foreground(lipgloss.Color(colorErr)),
	}
}

// Plain returns a Console that never colors, for tests and reports.
func Plain(out, errw io.Writer) *Console {
	return New(out, errw, ColorNever)
}

func profileFor(w io.Writer, mode ColorMode) termenv.Profile {
	switch mode {
	case ColorNever:
		return termenv.Ascii
	case ColorAlways:
		return termenv.ANSI256
	}
	if ciinfo.IsCI {
		return termenv.Ascii
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return termenv.Ascii
	}
	return termenv.NewOutput(w).EnvColorProfile()
}

func line(w io.Writer, style lipgloss.Style, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	// Leading blank lines stay outside the style.
	trimmed := strings.TrimLeft(msg, "\n")
	fmt.Fprint(w, msg[:len(msg)-len(trimmed)])
	fmt.Fprintln(w, style.Render(trimmed))
}

// Flow prints a main-flow line.
func (c *Console) Flow(format string, args ...interface{}) { line(c.out, c.flow, format, args...) }

// OK prints a success line.
func (c *Console) OK(format string, args ...interface{}) { line(c.out, c.ok, format, args...) }

// Warn prints a warning line.
func (c *Console) Warn(format string, args ...interface{}) { line(c.out, c.warn, format, args...) }

// Err prints an error line to the error writer.
func (c *Console) Err(format string, args ...interface{}) { line(c.err, c.fail, format, args...) }

// Dim prints secondary information.
func (c *Console) Dim(format string, args ...interface{}) { line(c.out, c.dim, format, args...) }

// Out returns the standard writer.
func (c *Console) Out() io.Writer { return c.out }
