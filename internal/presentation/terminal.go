package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TerminalRenderer prints each view state as a small text panel.
type TerminalRenderer struct {
	out io.Writer
}

// NewTerminalRenderer writes to out.
func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{out: out}
}

// Render implements Renderer.
func (t *TerminalRenderer) Render(state ViewState) {
	fmt.Fprintln(t.out, FormatView(state))
}

// FormatView renders a view state for the terminal.
func FormatView(state ViewState) string {
	var b strings.Builder

	b.WriteString(FormatStatus(state.Status))
	b.WriteByte('\n')

	if state.Readout == "" {
		b.WriteString(color.New(color.Faint).Sprint("(no location yet)"))
		b.WriteByte('\n')
	} else {
		for _, line := range strings.Split(state.Readout, "\n") {
			b.WriteString("  ")
			b.WriteString(color.CyanString(line))
			b.WriteByte('\n')
		}
	}

	b.WriteString(color.New(color.Faint).Sprintf("%d point(s) on path, centre (%.5f, %.5f)",
		state.PointCount, state.Center.Latitude, state.Center.Longitude))
	return b.String()
}

// FormatStatus renders the status line: green when active, red when not,
// yellow when the controller reports trouble.
func FormatStatus(s StatusView) string {
	switch {
	case s.Active && s.Degraded:
		line := color.YellowString(s.Text)
		if s.DegradedReason != "" {
			line += color.New(color.Faint).Sprintf(" - %s", s.DegradedReason)
		}
		return line
	case s.Active:
		return color.GreenString(s.Text)
	default:
		return color.RedString(s.Text)
	}
}
