package export

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/p-n-ai/tkb/internal/timetable"
)

// Text renders a grid as a bordered terminal table. Colours are only emitted
// when the output supports them.
func Text(w io.Writer, g timetable.Grid) error {
	headers := make([]string, 0, len(g.Days)+1)
	headers = append(headers, "Tiết")
	for _, d := range g.Days {
		headers = append(headers, timetable.DayName(d))
	}

	rows := make([][]string, 0, len(g.Rows))
	colors := make([][]string, 0, len(g.Rows))
	for _, row := range g.Rows {
		p := row.Period
		cells := []string{fmt.Sprintf("%d\n%s-%s", p.Number, p.Start, p.End)}
		fills := []string{""}
		for _, cell := range row.Cells {
			cells = append(cells, cellText(cell.Entries))
			fill := ""
			if len(cell.Entries) > 0 {
				fill = cell.Entries[0].Color.Hex()
			}
			fills = append(fills, fill)
		}
		rows = append(rows, cells)
		colors = append(colors, fills)
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1).MaxWidth(28)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < len(colors) && col < len(colors[row]) && colors[row][col] != "" {
				return cellStyle.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color(colors[row][col]))
			}
			return cellStyle
		})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
