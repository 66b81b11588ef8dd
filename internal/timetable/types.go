// Package timetable parses timetable rows copied from the university portal
// and lays the resulting lessons onto a lesson-number by day-of-week grid.
package timetable

// Day codes follow the portal's "Thứ N" numbering: 2 is Monday, 7 is
// Saturday and Sunday is 8.
const (
	Monday   = 2
	Saturday = 7
	Sunday   = 8
)

// MaxLessonNumber is the last period of the day.
const MaxLessonNumber = 14

// Lesson is one parsed timetable row.
type Lesson struct {
	ID         string      `json:"id"`
	Code       string      `json:"code,omitempty"`
	Name       string      `json:"name"`
	Instructor string      `json:"instructor"`
	Slots      []TimeSlot  `json:"slots"`
	Weeks      []WeekRange `json:"weeks"`
}

// TimeSlot is a single weekly meeting of a lesson.
type TimeSlot struct {
	Day   int    `json:"day"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

// WeekRange is an inclusive interval of academic weeks.
type WeekRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Covers reports whether the slot falls on day and spans lesson number n.
func (s TimeSlot) Covers(day, n int) bool {
	return s.Day == day && s.Start <= n && n <= s.End
}

// Contains reports whether week lies inside the range.
func (r WeekRange) Contains(week int) bool {
	return r.From <= week && week <= r.To
}

// ActiveIn reports whether any of the lesson's week ranges contains week.
func (l Lesson) ActiveIn(week int) bool {
	for _, r := range l.Weeks {
		if r.Contains(week) {
			return true
		}
	}
	return false
}

// MeetsOn reports whether the lesson has a slot on day.
func (l Lesson) MeetsOn(day int) bool {
	for _, s := range l.Slots {
		if s.Day == day {
			return true
		}
	}
	return false
}

// Occupies reports whether the lesson has a slot covering lesson number n
// on day.
func (l Lesson) Occupies(day, n int) bool {
	for _, s := range l.Slots {
		if s.Covers(day, n) {
			return true
		}
	}
	return false
}

// IsValidDay reports whether d is a day code in [Monday, Sunday].
func IsValidDay(d int) bool {
	return d >= Monday && d <= Sunday
}

// Days returns every day code in column order.
func Days() []int {
	days := make([]int, 0, Sunday-Monday+1)
	for d := Monday; d <= Sunday; d++ {
		days = append(days, d)
	}
	return days
}
