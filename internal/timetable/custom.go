package timetable

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder ordinal and section code for rows typed in by hand.
const (
	customOrdinal = "99"
	customCode    = "1234567.1234.12.34"
	customCredits = "3"
)

// CustomLesson is a lesson entered by hand rather than pasted from the portal.
type CustomLesson struct {
	Name       string `json:"name"`
	Instructor string `json:"instructor"`
	Room       string `json:"room"`
	Day        int    `json:"day"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	WeekFrom   int    `json:"week_from"`
	WeekTo     int    `json:"week_to"`
}

// DefaultCustomLesson returns the initial values of the entry form.
func DefaultCustomLesson() CustomLesson {
	return CustomLesson{Day: Monday, Start: 1, End: 10, WeekFrom: 1, WeekTo: 2}
}

// Validate checks that the lesson will produce a row ParseLine accepts.
func (c CustomLesson) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(c.Instructor) == "" {
		errs = append(errs, errors.New("instructor is required"))
	}
	if strings.TrimSpace(c.Room) == "" {
		errs = append(errs, errors.New("room is required"))
	}
	if strings.Contains(c.Room, ";") {
		errs = append(errs, errors.New("room must not contain ';'"))
	}
	if !IsValidDay(c.Day) {
		errs = append(errs, fmt.Errorf("day must be between %d and %d, got %d", Monday, Sunday, c.Day))
	}
	if c.Start < 1 || c.End > MaxLessonNumber || c.Start > c.End {
		errs = append(errs, fmt.Errorf("invalid lesson span %d-%d", c.Start, c.End))
	}
	if c.WeekFrom < 1 || c.WeekFrom > c.WeekTo {
		errs = append(errs, fmt.Errorf("invalid week range %d-%d", c.WeekFrom, c.WeekTo))
	}
	return errors.Join(errs...)
}

// Line renders the lesson as a portal row.
func (c CustomLesson) Line() string {
	return strings.Join([]string{
		customOrdinal,
		customCode,
		cleanField(c.Name),
		customCredits,
		"",
		"",
		cleanField(c.Instructor),
		fmt.Sprintf("%s %d,%d-%d,%s", weekdayWord, c.Day, c.Start, c.End, cleanField(c.Room)),
		fmt.Sprintf("%d-%d", c.WeekFrom, c.WeekTo),
	}, "\t")
}

// cleanField collapses whitespace so a value cannot break the row apart.
func cleanField(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
