// Package export renders timetables for use outside the service: calendar
// feeds, spreadsheets and terminal tables.
package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/p-n-ai/tkb/internal/timetable"
)

// MaxWeek bounds calendar expansion. Week ranges reaching past it are cut.
const MaxWeek = 60

const productID = "-//p-n-ai//tkb//VI"

// ICSOptions controls calendar expansion.
type ICSOptions struct {
	// TermStart is the Monday of week 1. Its location is used for all
	// event times.
	TermStart time.Time
	Periods   []timetable.Period
	Name      string
	// Stamp is written as DTSTAMP. Zero means now.
	Stamp time.Time
}

// ICS writes one event per lesson, slot and active week.
// It returns the number of events written.
func ICS(w io.Writer, lessons []timetable.Lesson, opts ICSOptions) (int, error) {
	if opts.TermStart.IsZero() {
		return 0, errors.New("term start is required")
	}
	periods := opts.Periods
	if len(periods) == 0 {
		periods = timetable.DefaultPeriods()
	}
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRTimezone(opts.TermStart.Location().String())
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	count := 0
	for _, l := range lessons {
		weeks := activeWeeks(l.Weeks)
		for i, slot := range l.Slots {
			start, ok := timetable.PeriodByNumber(periods, slot.Start)
			if !ok {
				continue
			}
			end, ok := timetable.PeriodByNumber(periods, slot.End)
			if !ok {
				continue
			}

			for _, week := range weeks {
				day := timetable.DateOf(opts.TermStart, week, slot.Day)

				event := cal.AddEvent(fmt.Sprintf("%s-%d-w%d@tkb", l.ID, i, week))
				event.SetDtStampTime(stamp)
				event.SetStartAt(start.Start.On(day))
				event.SetEndAt(end.End.On(day))
				event.SetSummary(l.Name)
				if slot.Label != "" {
					event.SetLocation(slot.Label)
				}
				if desc := description(l, slot, week); desc != "" {
					event.SetDescription(desc)
				}
				count++
			}
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return 0, fmt.Errorf("write calendar: %w", err)
	}

	slog.Debug("calendar exported", "lessons", len(lessons), "events", count)
	return count, nil
}

// activeWeeks flattens ranges into sorted distinct week numbers.
func activeWeeks(ranges []timetable.WeekRange) []int {
	seen := make([]bool, MaxWeek+1)
	for _, r := range ranges {
		for w := r.From; w <= r.To && w <= MaxWeek; w++ {
			seen[w] = true
		}
	}
	var weeks []int
	for w := 1; w <= MaxWeek; w++ {
		if seen[w] {
			weeks = append(weeks, w)
		}
	}
	return weeks
}

func description(l timetable.Lesson, slot timetable.TimeSlot, week int) string {
	var parts []string
	if l.Code != "" {
		parts = append(parts, l.Code)
	}
	if l.Instructor != "" {
		parts = append(parts, l.Instructor)
	}
	parts = append(parts, fmt.Sprintf("Tiết %d-%d, tuần %d", slot.Start, slot.End, week))
	return strings.Join(parts, "\n")
}
