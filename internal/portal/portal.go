// Package portal converts a saved or copied student portal page into the
// tab-delimited text the timetable parser reads.
package portal

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/p-n-ai/tkb/internal/timetable"
)

// DefaultSelector matches every table row in the document.
const DefaultSelector = "table tr"

// Result is the text extracted from a page.
type Result struct {
	Text    string
	Rows    int // rows with cells
	Lessons int // rows that parse as lessons
}

// Extract reads an HTML document and returns one tab-delimited line per
// table row that parses as a lesson. Header rows, totals and layout tables
// are dropped.
func Extract(r io.Reader) (Result, error) {
	return ExtractSelector(r, DefaultSelector)
}

// ExtractSelector is Extract with a custom row selector.
func ExtractSelector(r io.Reader, selector string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}

	var res Result
	var lines []string
	doc.Find(selector).Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return
		}
		res.Rows++

		fields := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			fields = append(fields, cellText(cell))
		})

		line := strings.Join(fields, "\t")
		if _, ok := timetable.ParseLine(line); !ok {
			return
		}
		lines = append(lines, line)
	})

	res.Lessons = len(lines)
	res.Text = strings.Join(lines, "\n")

	slog.Debug("portal page extracted", "rows", res.Rows, "lessons", res.Lessons)
	return res, nil
}

// cellText flattens a cell to a single field. Line breaks between schedule
// entries become "; " so they stay separate entries.
func cellText(cell *goquery.Selection) string {
	cell.Find("br").ReplaceWithHtml("; ")
	text := strings.Join(strings.Fields(cell.Text()), " ")
	text = strings.Trim(text, "; ")
	return strings.ReplaceAll(text, "; ;", ";")
}
