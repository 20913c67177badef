package report

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Theme holds the styles used for human-readable output. With color disabled every
// paint call returns its input unchanged.
type Theme struct {
	color bool

	header    lipgloss.Style
	file      lipgloss.Style
	regressed lipgloss.Style
	improved  lipgloss.Style
	previous  lipgloss.Style
	path      lipgloss.Style
	muted     lipgloss.Style
}

// ColorEnabled resolves a color mode against the destination writer.
func ColorEnabled(w io.Writer, mode string) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func NewTheme(w io.Writer, mode string) Theme {
	color := ColorEnabled(w, mode)
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return Theme{
		color:     color,
		header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F4D03F")),
		file:      r.NewStyle().Underline(true),
		regressed: r.NewStyle().Foreground(lipgloss.Color("#E74C3C")),
		improved:  r.NewStyle().Foreground(lipgloss.Color("#2ECC71")),
		previous:  r.NewStyle().Foreground(lipgloss.Color("#F4D03F")),
		path:      r.NewStyle().Underline(true).Foreground(lipgloss.Color("#F4D03F")),
		muted:     r.NewStyle().Foreground(lipgloss.Color("#7F8C8D")),
	}
}

func (t Theme) paint(style lipgloss.Style, text string) string {
	if !t.color {
		return text
	}
	return style.Render(text)
}
