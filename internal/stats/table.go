package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatTable lays out headers and rows into aligned text lines. Columns
// listed in rightAlign are padded on the left.
func FormatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	cols := len(headers)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return nil
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	render := func(row []string) string {
		var b strings.Builder
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if i > 0 {
				b.WriteByte(' ')
			}
			pad := widths[i] - runewidth.StringWidth(cell)
			if pad < 0 {
				pad = 0
			}
			if rightAlign[i] {
				b.WriteString(strings.Repeat(" ", pad))
				b.WriteString(cell)
			} else {
				b.WriteString(cell)
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		return strings.TrimRight(b.String(), " ")
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, render(headers))
	for _, row := range rows {
		lines = append(lines, render(row))
	}
	return lines
}
