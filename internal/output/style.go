package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/telwatch/internal/status"
)

// Palette colors
var (
	ColorIdle    = lipgloss.Color("#6c7086")
	ColorRinging = lipgloss.Color("#f9e2af")
	ColorDialing = lipgloss.Color("#89b4fa")
	ColorInCall  = lipgloss.Color("#a6e3a1")
	ColorError   = lipgloss.Color("#f38ba8")
	ColorSubtext = lipgloss.Color("#a6adc8")
	ColorInfo    = lipgloss.Color("#89dceb")
	ColorOverlay = lipgloss.Color("#7f849c")
)

// UseColor reports whether styled output should be written to w: it must
// be a terminal and color must not be disabled through NO_COLOR or
// CLICOLOR=0.
func UseColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if termenv.EnvNoColor() {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StateColor returns the palette color for a phone state
func StateColor(s status.PhoneState) lipgloss.Color {
	switch s {
	case status.StateRinging:
		return ColorRinging
	case status.StateDialing:
		return ColorDialing
	case status.StateInCall:
		return ColorInCall
	default:
		return ColorIdle
	}
}

// StateStyle returns the badge style for a phone state
func StateStyle(s status.PhoneState) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(StateColor(s)).Bold(true)
	if s == status.StateRinging {
		style = style.Blink(true)
	}
	return style
}

// LabelStyle is used for field labels in status output
func LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSubtext)
}
