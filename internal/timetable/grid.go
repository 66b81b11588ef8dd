package timetable

import (
	"strings"
	"time"
)

// Filters select which lessons and which part of the week a grid shows.
type Filters struct {
	// WeekMode restricts the grid to lessons active in Week.
	WeekMode bool `json:"week_mode"`
	Week     int  `json:"week"`
	// OnlyToday keeps only the column for Today.
	OnlyToday bool `json:"only_today"`
	// OnlyOccupied drops rows in which no lesson meets on any day.
	OnlyOccupied bool `json:"only_occupied"`
	// Today is the current day code, used when OnlyToday is set.
	Today int `json:"today"`
}

// Grid is the composed weekly view. Every row has one cell per entry of Days,
// in the same order.
type Grid struct {
	Days []int `json:"days"`
	Rows []Row `json:"rows"`
}

// Row holds the cells of one period.
type Row struct {
	Period Period `json:"period"`
	Cells  []Cell `json:"cells"`
}

// Cell lists the lessons meeting at one period on one day.
type Cell struct {
	Day     int     `json:"day"`
	Entries []Entry `json:"entries"`
}

// Entry is a lesson as shown inside a cell. Labels joins the labels of all
// the lesson's slots covering the cell.
type Entry struct {
	Lesson Lesson `json:"lesson"`
	Labels string `json:"labels"`
	Color  Color  `json:"color"`
}

// Cell returns the entries at lesson number n on day, and false when the grid
// has no such row or column.
func (g Grid) Cell(n, day int) ([]Entry, bool) {
	for _, r := range g.Rows {
		if r.Period.Number != n {
			continue
		}
		for _, c := range r.Cells {
			if c.Day == day {
				return c.Entries, true
			}
		}
	}
	return nil, false
}

// Empty reports whether no cell of the grid has an entry.
func (g Grid) Empty() bool {
	for _, r := range g.Rows {
		for _, c := range r.Cells {
			if len(c.Entries) > 0 {
				return false
			}
		}
	}
	return true
}

// DayCodeOf returns the day code of t: Monday is 2 and Sunday is 8.
func DayCodeOf(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return Sunday
	}
	return int(t.Weekday()) + 1
}

// ComposeGrid lays lessons onto periods. It never reads the clock: the day
// used by OnlyToday comes from f.Today.
func ComposeGrid(lessons []Lesson, periods []Period, f Filters) Grid {
	byDay := indexByDay(lessons, f)

	days := Days()
	if f.OnlyToday {
		days = days[:0]
		if IsValidDay(f.Today) {
			days = append(days, f.Today)
		}
	}

	g := Grid{Days: days, Rows: []Row{}}
	for _, p := range periods {
		if f.OnlyOccupied && !rowOccupied(byDay, p.Number) {
			continue
		}

		row := Row{Period: p, Cells: make([]Cell, 0, len(days))}
		for _, d := range days {
			row.Cells = append(row.Cells, Cell{Day: d, Entries: cellEntries(byDay[d], d, p.Number)})
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

// indexByDay groups the lessons that pass the week filter by the days they
// meet on, keeping lesson-set order within each day.
func indexByDay(lessons []Lesson, f Filters) map[int][]Lesson {
	byDay := make(map[int][]Lesson)
	for _, l := range lessons {
		if f.WeekMode && !l.ActiveIn(f.Week) {
			continue
		}
		for _, d := range Days() {
			if l.MeetsOn(d) {
				byDay[d] = append(byDay[d], l)
			}
		}
	}
	return byDay
}

func rowOccupied(byDay map[int][]Lesson, n int) bool {
	for d, lessons := range byDay {
		for _, l := range lessons {
			if l.Occupies(d, n) {
				return true
			}
		}
	}
	return false
}

func cellEntries(lessons []Lesson, day, n int) []Entry {
	entries := []Entry{}
	for _, l := range lessons {
		var labels []string
		for _, s := range l.Slots {
			if s.Covers(day, n) {
				labels = append(labels, s.Label)
			}
		}
		if len(labels) == 0 {
			continue
		}
		entries = append(entries, Entry{
			Lesson: l,
			Labels: strings.Join(labels, ", "),
			Color:  ColorFor(l.Name),
		})
	}
	return entries
}
