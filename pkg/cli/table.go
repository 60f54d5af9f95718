package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Theme is the color scheme for tables.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Alert   lipgloss.Color
}

var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Alert:   lipgloss.Color("#ff5f5f"),
}

// Table is a bordered table with a styled header row.
type Table struct {
	Theme   Theme
	Headers []string
	Rows    [][]string

	// Highlight marks rows drawn in the alert color, for example failed calls.
	Highlight func(row int) bool
}

// NewTable returns a table with the default theme.
func NewTable(headers ...string) *Table {
	return &Table{Theme: DefaultTheme, Headers: headers}
}

// Append adds a row.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) String() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(t.Theme.Primary).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	alert := cell.Foreground(t.Theme.Alert)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Theme.Dim)).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case t.Highlight != nil && t.Highlight(row):
				return alert
			default:
				return cell
			}
		}).
		String()
}
