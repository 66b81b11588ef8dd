package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSchedule renders slots in the grammar accepted by ParseSchedule.
// Sunday is written as "Chủ nhật".
func FormatSchedule(slots []TimeSlot) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, fmt.Sprintf("%s,%d-%d,%s", DayName(s.Day), s.Start, s.End, s.Label))
	}
	return strings.Join(parts, "; ")
}

// DayName returns the column heading of day code d: "Thứ 2" to "Thứ 7",
// then "Chủ nhật".
func DayName(d int) string {
	if d == Sunday {
		return sundayLong
	}
	return weekdayWord + " " + strconv.Itoa(d)
}

// FormatWeeks renders week ranges in the grammar accepted by ParseWeeks.
// Single-week ranges are written as a bare number.
func FormatWeeks(weeks []WeekRange) string {
	parts := make([]string, 0, len(weeks))
	for _, r := range weeks {
		if r.From == r.To {
			parts = append(parts, strconv.Itoa(r.From))
			continue
		}
		parts = append(parts, fmt.Sprintf("%d-%d", r.From, r.To))
	}
	return strings.Join(parts, ",")
}

// FormatLine renders a lesson as a portal row with the given ordinal.
// Credits and the reserved columns are left empty.
func FormatLine(ordinal int, l Lesson) string {
	fields := make([]string, minFields)
	fields[fieldOrdinal] = strconv.Itoa(ordinal)
	fields[fieldCode] = l.Code
	fields[fieldName] = l.Name
	fields[fieldInstructor] = l.Instructor
	fields[fieldSchedule] = FormatSchedule(l.Slots)
	fields[fieldWeeks] = FormatWeeks(l.Weeks)
	return strings.Join(fields, "\t")
}
