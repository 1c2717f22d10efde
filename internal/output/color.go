// Package output renders ridechat results for the terminal.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	ColorPrimary = lipgloss.Color("#64b5f6")
	ColorAccent  = lipgloss.Color("#ffb74d")
	ColorError   = lipgloss.Color("#ef5350")
	ColorMuted   = lipgloss.Color("#888888")
)

// Styles shared by the renderers.
var (
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StyleEmphasis = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleLabel = lipgloss.NewStyle().
			Width(20)

	StyleValue = lipgloss.NewStyle().
			Bold(true)
)

var noColor bool

// SetNoColor swaps every style for an unstyled one when disabled is true.
func SetNoColor(disabled bool) {
	noColor = disabled
	if disabled {
		plain := lipgloss.NewStyle()
		StyleHeader = plain
		StyleEmphasis = plain
		StyleError = plain
		StyleMuted = plain
		StyleLabel = plain.Width(20)
		StyleValue = plain
	}
}

// IsNoColor reports whether colour output is disabled.
func IsNoColor() bool {
	return noColor
}

// AutoColor disables colour when forced or when stdout is not a terminal.
func AutoColor(force bool) {
	fd := os.Stdout.Fd()
	if force || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		SetNoColor(true)
	}
}
