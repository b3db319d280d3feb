package display

import (
	"strings"
	"unicode/utf8"
)

// Marker prefixes the highlighted row so it stands out without colors.
const Marker = "▸"

// Table renders aligned columns. Widths count runes, so Arabic labels line up.
type Table struct {
	headers   []string
	rows      [][]string
	highlight int
	indent    string
}

// NewTable creates a table. headers may be nil for a header-less table.
func NewTable(headers []string) *Table {
	return &Table{
		headers:   headers,
		highlight: -1,
		indent:    "  ",
	}
}

func (t *Table) AddRow(values ...string) {
	t.rows = append(t.rows, values)
}

// Highlight selects the 0-based row to accent; -1 clears it.
func (t *Table) Highlight(idx int) {
	t.highlight = idx
}

func (t *Table) Render() string {
	widths := t.widths()
	if len(widths) == 0 {
		return ""
	}

	var sb strings.Builder

	if len(t.headers) > 0 {
		sb.WriteString(t.indent + Bold(formatRow(t.headers, widths)) + "\n")
		sep := make([]string, len(widths))
		for i, w := range widths {
			sep[i] = strings.Repeat("─", w)
		}
		sb.WriteString(Dim(t.indent+strings.Join(sep, "  ")) + "\n")
	}

	for i, row := range t.rows {
		line := formatRow(row, widths)
		if i == t.highlight {
			sb.WriteString(Marker + t.indent[utf8.RuneCountInString(Marker):] + Accent(line) + "\n")
			continue
		}
		sb.WriteString(t.indent + line + "\n")
	}

	return sb.String()
}

func (t *Table) widths() []int {
	n := len(t.headers)
	for _, row := range t.rows {
		if len(row) > n {
			n = len(row)
		}
	}

	widths := make([]int, n)
	measure := func(cells []string) {
		for i, cell := range cells {
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

// formatRow pads each cell to its column width. The last column is not padded.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i < len(widths)-1 {
			cell += strings.Repeat(" ", w-utf8.RuneCountInString(cell))
		}
		parts[i] = cell
	}
	return strings.Join(parts, "  ")
}
