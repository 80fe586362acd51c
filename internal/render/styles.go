// Package render formats options, recommendations and run summaries for the
// terminal. Output is plain text with lipgloss styling layered on top when
// the destination is a terminal.
package render

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Brand palette.
var (
	Magenta = lipgloss.Color("#C678DD")
	Cyan    = lipgloss.Color("#56B6C2")
	Green   = lipgloss.Color("#8BC34A")
	Yellow  = lipgloss.Color("#FFC107")
	Red     = lipgloss.Color("#E53935")
	Grey    = lipgloss.Color("#7F848E")
)

// Styles holds the styled text roles used by the renderer.
type Styles struct {
	Banner  lipgloss.Style
	Title   lipgloss.Style
	Prompt  lipgloss.Style
	Bold    lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Accent  lipgloss.Style
}

// NewStyles returns colored styles, or unstyled ones when color is false.
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{
			Banner:  plain.Border(lipgloss.NormalBorder()).Padding(1, 4),
			Title:   plain,
			Prompt:  plain,
			Bold:    plain,
			Body:    plain,
			Muted:   plain,
			Success: plain,
			Warning: plain,
			Error:   plain,
			Accent:  plain,
		}
	}
	return Styles{
		Banner: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Magenta).
			Padding(1, 4),
		Title: lipgloss.NewStyle().
			Foreground(Magenta).
			Bold(true),
		Prompt: lipgloss.NewStyle().
			Foreground(Magenta).
			Bold(true),
		Bold:    lipgloss.NewStyle().Bold(true),
		Body:    lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle().Foreground(Grey),
		Success: lipgloss.NewStyle().Foreground(Green),
		Warning: lipgloss.NewStyle().Foreground(Yellow),
		Error:   lipgloss.NewStyle().Foreground(Red).Bold(true),
		Accent:  lipgloss.NewStyle().Foreground(Cyan).Bold(true),
	}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
