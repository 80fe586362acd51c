package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders static rows with aligned columns.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given title and headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

// AddRow appends a row. Cells beyond the header count are ignored.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// View renders the table, or "" when it has no rows.
func (t *Table) View(st Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(st.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	header := st.Bold.Padding(0, 1)
	body := st.Body.Padding(0, 1)
	sep := st.Muted.Render("|")

	writeRow := func(cells []string, style lipgloss.Style) {
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(style.Width(widths[i] + 2).Render(cell))
			if i < len(widths)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	writeRow(t.Headers, header)
	total := len(widths) - 1
	for _, w := range widths {
		total += w + 2
	}
	sb.WriteString(st.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for _, row := range t.Rows {
		writeRow(row, body)
	}
	return sb.String()
}
