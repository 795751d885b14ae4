package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table outputs tabular data in text format. Widths are measured in
// terminal cells so wide characters stay aligned.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with headers
func NewTable(w io.Writer, headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	return &Table{
		writer:  w,
		headers: headers,
		rows:    [][]string{},
		widths:  widths,
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cols ...string) {
	for i, c := range cols {
		if i < len(t.widths) {
			if w := runewidth.StringWidth(c); w > t.widths[i] {
				t.widths[i] = w
			}
		}
	}
	t.rows = append(t.rows, cols)
}

// Render outputs the table
func (t *Table) Render() error {
	if err := t.writeRow(t.headers); err != nil {
		return err
	}
	seps := make([]string, len(t.widths))
	for i, w := range t.widths {
		seps[i] = strings.Repeat("-", w)
	}
	if err := t.writeRow(seps); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := t.writeRow(row); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) writeRow(cols []string) error {
	cells := make([]string, len(t.widths))
	for i, w := range t.widths {
		cell := ""
		if i < len(cols) {
			cell = cols[i]
		}
		if i < len(t.widths)-1 {
			cell = runewidth.FillRight(cell, w)
		}
		cells[i] = cell
	}
	_, err := fmt.Fprintln(t.writer, strings.TrimRight("  "+strings.Join(cells, "  "), " "))
	return err
}

// Truncate shortens s to maxWidth cells, adding "..." if needed
func Truncate(s string, maxWidth int) string {
	return runewidth.Truncate(s, maxWidth, "...")
}
