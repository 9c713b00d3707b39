package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders rows under headers. Status values such as running or
// offline are coloured.
func (p *Printer) Table(headers []string, rows [][]string) {
	s := p.styles
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Dim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			if row >= 0 && row < len(rows) && col < len(rows[row]) {
				if st, ok := s.status(rows[row][col]); ok {
					return st.Padding(0, 1)
				}
			}
			return s.Cell
		})
	fmt.Fprintln(p.out, t.Render())
}
