package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Printer writes styled output to one writer.
type Printer struct {
	out    io.Writer
	styles Styles
}

// NewPrinter returns a Printer for w. The colour profile is detected from w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: w, styles: newStyles(lipgloss.NewRenderer(w))}
}

// Styles returns the printer's palette.
func (p *Printer) Styles() Styles {
	return p.styles
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) line(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.out, style.Render(fmt.Sprintf(format, args...)))
}

// Println writes an unstyled line.
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Title writes a bold heading.
func (p *Printer) Title(format string, args ...any) {
	p.line(p.styles.Title, format, args...)
}

// Success writes a green status line.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.styles.Add, checkMark+" "+format, args...)
}

// Warn writes a yellow status line.
func (p *Printer) Warn(format string, args ...any) {
	p.line(p.styles.Warning, format, args...)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
