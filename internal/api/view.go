package api

import (
	"github.com/p-n-ai/tkb/internal/timetable"
)

type gridView struct {
	Days []dayView `json:"days"`
	Rows []rowView `json:"rows"`
}

type dayView struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

type rowView struct {
	Lesson int        `json:"lesson"`
	Start  string     `json:"start"`
	End    string     `json:"end"`
	Cells  []cellView `json:"cells"`
}

type cellView struct {
	Day     int         `json:"day"`
	Entries []entryView `json:"entries"`
}

type entryView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Instructor string `json:"instructor"`
	Labels     string `json:"labels"`
	Color      string `json:"color"`
	Hex        string `json:"hex"`
}

func newGridView(g timetable.Grid) gridView {
	v := gridView{Days: make([]dayView, 0, len(g.Days)), Rows: make([]rowView, 0, len(g.Rows))}
	for _, d := range g.Days {
		v.Days = append(v.Days, dayView{Code: d, Name: timetable.DayName(d)})
	}
	for _, r := range g.Rows {
		row := rowView{
			Lesson: r.Period.Number,
			Start:  r.Period.Start.String(),
			End:    r.Period.End.String(),
			Cells:  make([]cellView, 0, len(r.Cells)),
		}
		for _, c := range r.Cells {
			cell := cellView{Day: c.Day, Entries: make([]entryView, 0, len(c.Entries))}
			for _, e := range c.Entries {
				cell.Entries = append(cell.Entries, entryView{
					ID:         e.Lesson.ID,
					Name:       e.Lesson.Name,
					Instructor: e.Lesson.Instructor,
					Labels:     e.Labels,
					Color:      e.Color.CSS(),
					Hex:        e.Color.Hex(),
				})
			}
			row.Cells = append(row.Cells, cell)
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}
