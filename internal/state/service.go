package state

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/p-n-ai/tkb/internal/share"
	"github.com/p-n-ai/tkb/internal/timetable"
)

// Service applies changes to stored states. Every change is a full
// load-modify-save; the lesson set is rebuilt from Data by readers.
type Service struct {
	store Store
	bus   Bus
	now   func() time.Time
	mu    sync.Mutex
}

// NewService creates a service on store.
func NewService(store Store) *Service {
	return &Service{store: store, bus: NopBus{}, now: time.Now}
}

// SetBus sets where change events are published.
func (s *Service) SetBus(bus Bus) {
	s.bus = bus
}

// Bus returns the event bus.
func (s *Service) Bus() Bus {
	return s.bus
}

// SetClock replaces the clock used for UpdatedAt.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// Get returns the state for id.
func (s *Service) Get(ctx context.Context, id string) (State, error) {
	if !ValidID(id) {
		return State{}, fmt.Errorf("%w: state id %q", ErrInvalid, id)
	}
	return s.store.Load(ctx, id)
}

// Update loads the state for id, applies fn and saves the result. Stores
// implementing Updater run the whole change atomically; the others are
// serialised by a mutex local to this process.
func (s *Service) Update(ctx context.Context, id string, fn func(*State) error) (State, error) {
	if !ValidID(id) {
		return State{}, fmt.Errorf("%w: state id %q", ErrInvalid, id)
	}

	apply := func(st *State) error {
		if err := fn(st); err != nil {
			return err
		}
		st.Normalize()
		st.UpdatedAt = s.now()
		return nil
	}

	var (
		st  State
		err error
	)
	if u, ok := s.store.(Updater); ok {
		st, err = u.Update(ctx, id, apply)
	} else {
		st, err = s.update(ctx, id, apply)
	}
	if err != nil {
		return State{}, err
	}

	slog.Debug("state saved", "id", id, "bytes", len(st.Data), "by_week", st.ByWeek, "week", st.Week)
	s.publish(ctx, id, EventUpdated)
	return st, nil
}

func (s *Service) update(ctx context.Context, id string, fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx, id)
	if err != nil {
		return State{}, err
	}
	if err := fn(&st); err != nil {
		return State{}, err
	}
	if err := s.store.Save(ctx, id, st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Replace overwrites the state for id.
func (s *Service) Replace(ctx context.Context, id string, next State) (State, error) {
	return s.Update(ctx, id, func(st *State) error {
		*st = next
		return nil
	})
}

// AddCustomLesson validates c and appends its row to the stored text.
func (s *Service) AddCustomLesson(ctx context.Context, id string, c timetable.CustomLesson) (State, timetable.Lesson, error) {
	if err := c.Validate(); err != nil {
		return State{}, timetable.Lesson{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	line := c.Line()
	lesson, ok := timetable.ParseLine(line)
	if !ok {
		return State{}, timetable.Lesson{}, fmt.Errorf("%w: custom lesson does not form a valid row", ErrInvalid)
	}

	st, err := s.Update(ctx, id, func(st *State) error {
		st.Data = timetable.AppendLine(st.Data, line)
		return nil
	})
	if err != nil {
		return State{}, timetable.Lesson{}, err
	}

	slog.Info("custom lesson added", "id", id, "name", lesson.Name)
	return st, lesson, nil
}

// ImportShared replaces the stored text with the text carried by a share
// link and returns the link with the data parameter removed. ok is false,
// and nothing is saved, when the link carries no shared text. A data
// parameter that does not decode is an ErrInvalid error.
func (s *Service) ImportShared(ctx context.Context, id string, link *url.URL) (State, *url.URL, bool, error) {
	text, cleaned, ok, err := share.Consume(link)
	if err != nil {
		return State{}, nil, false, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !ok {
		st, err := s.Get(ctx, id)
		return st, cleaned, false, err
	}

	st, err := s.Update(ctx, id, func(st *State) error {
		st.Data = text
		return nil
	})
	if err != nil {
		return State{}, nil, false, err
	}

	slog.Info("shared timetable imported", "id", id, "lessons", len(st.Lessons()))
	return st, cleaned, true, nil
}

// Reset restores the default state for id.
func (s *Service) Reset(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: state id %q", ErrInvalid, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("state reset", "id", id)
	s.publish(ctx, id, EventReset)
	return nil
}

// publish announces a change. Delivery failures do not undo the change.
func (s *Service) publish(ctx context.Context, id, kind string) {
	if err := s.bus.Publish(ctx, Event{ID: id, Kind: kind, At: s.now()}); err != nil {
		slog.Warn("publishing state event failed", "id", id, "kind", kind, "error", err)
	}
}
