package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/tkb/internal/timetable"
)

// SheetName is the name of the only sheet in exported workbooks.
const SheetName = "TKB"

// XLSX writes a grid as a workbook: one row per period, one column per day.
// Cells are filled with the colour of their first lesson.
func XLSX(w io.Writer, g timetable.Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := setCell(f, 1, 1, "Tiết", header); err != nil {
		return err
	}
	for i, d := range g.Days {
		if err := setCell(f, i+2, 1, timetable.DayName(d), header); err != nil {
			return err
		}
	}

	styles := map[string]int{}
	fill := func(hex string) (int, error) {
		if id, ok := styles[hex]; ok {
			return id, nil
		}
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}},
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		})
		if err != nil {
			return 0, fmt.Errorf("create fill style: %w", err)
		}
		styles[hex] = id
		return id, nil
	}

	for r, row := range g.Rows {
		y := r + 2
		p := row.Period
		if err := setCell(f, 1, y, fmt.Sprintf("%d (%s-%s)", p.Number, p.Start, p.End), header); err != nil {
			return err
		}

		for c, cell := range row.Cells {
			if len(cell.Entries) == 0 {
				continue
			}
			style, err := fill(cell.Entries[0].Color.Hex())
			if err != nil {
				return err
			}
			if err := setCell(f, c+2, y, cellText(cell.Entries), style); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if len(g.Days) > 0 {
		last, err := excelize.ColumnNumberToName(len(g.Days) + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(SheetName, "B", last, 24); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value string, style int) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, name, value); err != nil {
		return fmt.Errorf("set cell %s: %w", name, err)
	}
	if err := f.SetCellStyle(SheetName, name, name, style); err != nil {
		return fmt.Errorf("style cell %s: %w", name, err)
	}
	return nil
}

// cellText lists each entry as its name followed by its labels.
func cellText(entries []timetable.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := e.Lesson.Name
		if e.Labels != "" {
			line += " (" + e.Labels + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
