package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

const (
	checkMark = "[OK]"
	crossMark = "[!!]"
	skipMark  = "[--]"
)

// Styles is the palette of one Printer.
type Styles struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Add     lipgloss.Style
	Remove  lipgloss.Style
	Update  lipgloss.Style
	Warning lipgloss.Style
	Dim     lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(colorWhite),
		Section: r.NewStyle().Bold(true).Foreground(colorBlue),
		Add:     r.NewStyle().Foreground(colorGreen),
		Remove:  r.NewStyle().Foreground(colorRed),
		Update:  r.NewStyle().Foreground(colorBlue),
		Warning: r.NewStyle().Foreground(colorYellow),
		Dim:     r.NewStyle().Foreground(colorDim),
		Header:  r.NewStyle().Bold(true).Foreground(colorBlue).Padding(0, 1),
		Cell:    r.NewStyle().Padding(0, 1),
	}
}

// statusStyles colours well-known status values in tables.
func (s Styles) status(value string) (lipgloss.Style, bool) {
	switch value {
	case "online", "running", "started", "true":
		return s.Add, true
	case "offline", "stopped", "error", "failed":
		return s.Remove, true
	case "disabled", "ignored", "fence", "recovery":
		return s.Warning, true
	}
	return lipgloss.Style{}, false
}
