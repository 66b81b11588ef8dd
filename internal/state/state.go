// Package state persists the raw timetable text and display settings of each
// user. Lessons are never stored: they are rebuilt from the raw text.
package state

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/p-n-ai/tkb/internal/timetable"
)

// ErrInvalid marks errors caused by bad caller input.
var ErrInvalid = errors.New("invalid input")

// State is everything a user can change: the pasted text and the display
// toggles.
type State struct {
	Data              string    `json:"data" yaml:"data"`
	ByWeek            bool      `json:"by_week" yaml:"by_week"`
	Week              int       `json:"week" yaml:"week"`
	ShowOnlyAvailable bool      `json:"show_only_available" yaml:"show_only_available"`
	OnlyToday         bool      `json:"only_today" yaml:"only_today"`
	AutoFit           bool      `json:"auto_fit" yaml:"auto_fit"`
	HidePanel         bool      `json:"hide_panel" yaml:"hide_panel"`
	UpdatedAt         time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

// Default returns the state of a new user, which is also what a reset
// restores.
func Default() State {
	return State{Week: 1}
}

// Normalize clamps values the rest of the system relies on.
func (s *State) Normalize() {
	if s.Week < 1 {
		s.Week = 1
	}
}

// Lessons parses the stored text.
func (s State) Lessons() []timetable.Lesson {
	return timetable.BuildLessonSet(s.Data)
}

// Filters returns the grid filters for this state on the given day.
func (s State) Filters(today int) timetable.Filters {
	return timetable.Filters{
		WeekMode:     s.ByWeek,
		Week:         s.Week,
		OnlyToday:    s.OnlyToday,
		OnlyOccupied: s.ShowOnlyAvailable,
		Today:        today,
	}
}

// Store persists states by user id. Load of an unknown id returns Default
// and no error.
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, s State) error
	Delete(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error
}

// Updater is implemented by stores that can apply a read-modify-write
// atomically across processes. fn errors are returned unchanged and nothing
// is written.
type Updater interface {
	Update(ctx context.Context, id string, fn func(*State) error) (State, error)
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether id can be used as a state key.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
