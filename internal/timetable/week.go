package timetable

import (
	"math"
	"time"
)

// Academic weeks run Monday to Sunday. A termStart on any other day means
// the week that contains it, so it is moved back to that week's Monday.

// WeekOf returns the academic week containing t for a term whose first week
// contains termStart. Dates before the term count as week 1.
func WeekOf(termStart, t time.Time) int {
	start := TermMonday(termStart)
	days := int(math.Round(midnight(t.In(start.Location())).Sub(start).Hours() / 24))
	if days < 0 {
		return 1
	}
	return days/7 + 1
}

// WeekStart returns the Monday of the given academic week.
func WeekStart(termStart time.Time, week int) time.Time {
	return TermMonday(termStart).AddDate(0, 0, (week-1)*7)
}

// TermMonday returns midnight of the Monday on or before termStart.
func TermMonday(termStart time.Time) time.Time {
	start := midnight(termStart)
	return start.AddDate(0, 0, -((int(start.Weekday())+6)%7))
}

// DateOf returns the calendar date of day code d in the given week.
func DateOf(termStart time.Time, week, d int) time.Time {
	return WeekStart(termStart, week).AddDate(0, 0, d-Monday)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
