package timetable

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "H:MM" or "HH:MM".
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Clock{}, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || len(m) != 2 {
		return Clock{}, fmt.Errorf("invalid minute in %q", s)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%d:%02d", c.Hour, c.Minute)
}

// Minutes returns the minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On returns the instant at this clock time on the given day.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Clock) UnmarshalYAML(value *yaml.Node) error {
	return c.UnmarshalText([]byte(value.Value))
}

// Period is one numbered lesson of the day.
type Period struct {
	Number int   `json:"lesson" yaml:"lesson"`
	Start  Clock `json:"start" yaml:"start"`
	End    Clock `json:"end" yaml:"end"`
}

var defaultPeriods = []Period{
	{1, Clock{7, 0}, Clock{7, 50}},
	{2, Clock{8, 0}, Clock{8, 50}},
	{3, Clock{9, 0}, Clock{9, 50}},
	{4, Clock{10, 0}, Clock{10, 50}},
	{5, Clock{11, 0}, Clock{11, 50}},
	{6, Clock{12, 30}, Clock{13, 20}},
	{7, Clock{13, 30}, Clock{14, 20}},
	{8, Clock{14, 30}, Clock{15, 20}},
	{9, Clock{15, 30}, Clock{16, 20}},
	{10, Clock{16, 30}, Clock{17, 20}},
	{11, Clock{17, 30}, Clock{18, 15}},
	{12, Clock{18, 15}, Clock{19, 0}},
	{13, Clock{19, 10}, Clock{19, 55}},
	{14, Clock{19, 55}, Clock{20, 40}},
}

// DefaultPeriods returns the fourteen standard periods.
func DefaultPeriods() []Period {
	return append([]Period(nil), defaultPeriods...)
}

// LoadPeriods reads a period table from a YAML file of the form
//
//	periods:
//	  - lesson: 1
//	    start: "7:00"
//	    end: "7:50"
func LoadPeriods(path string) ([]Period, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading periods: %w", err)
	}

	var doc struct {
		Periods []Period `yaml:"periods"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing periods %s: %w", path, err)
	}
	if err := ValidatePeriods(doc.Periods); err != nil {
		return nil, fmt.Errorf("periods %s: %w", path, err)
	}

	slog.Info("periods loaded", "path", path, "count", len(doc.Periods))
	return doc.Periods, nil
}

// ValidatePeriods checks that periods are numbered 1..n in order, fit within
// MaxLessonNumber and each ends after it starts.
func ValidatePeriods(periods []Period) error {
	if len(periods) == 0 {
		return fmt.Errorf("no periods defined")
	}
	if len(periods) > MaxLessonNumber {
		return fmt.Errorf("at most %d periods supported, got %d", MaxLessonNumber, len(periods))
	}
	for i, p := range periods {
		if p.Number != i+1 {
			return fmt.Errorf("period %d has number %d", i+1, p.Number)
		}
		if p.End.Minutes() <= p.Start.Minutes() {
			return fmt.Errorf("period %d ends at %s before it starts at %s", p.Number, p.End, p.Start)
		}
	}
	return nil
}

// PeriodByNumber returns the period numbered n.
func PeriodByNumber(periods []Period, n int) (Period, bool) {
	for _, p := range periods {
		if p.Number == n {
			return p, true
		}
	}
	return Period{}, false
}
