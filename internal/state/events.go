package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/p-n-ai/tkb/internal/platform/cache"
)

// Event kinds.
const (
	EventUpdated = "updated"
	EventReset   = "reset"
)

// Event announces that the state of a user changed.
type Event struct {
	ID   string    `json:"id"`
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
}

// Bus fans state events out to subscribers of the same id. Subscribe returns
// a channel that is closed by the returned cancel function or when ctx ends.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context, id string) (<-chan Event, func())
}

// NopBus drops every event.
type NopBus struct{}

func (NopBus) Publish(context.Context, Event) error { return nil }

func (NopBus) Subscribe(ctx context.Context, _ string) (<-chan Event, func()) {
	ch := make(chan Event)
	var once sync.Once
	cancel := func() { once.Do(func() { close(ch) }) }
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel
}

// subscriberBuffer is how many events a slow subscriber may lag behind
// before events to it are dropped.
const subscriberBuffer = 8

// MemoryBus delivers events within one process.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[chan Event]struct{})}
}

func (b *MemoryBus) Publish(_ context.Context, e Event) error {
	if e.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[e.ID] {
		select {
		case ch <- e:
		default:
			slog.Warn("dropping state event for slow subscriber", "id", e.ID, "kind", e.Kind)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, id string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[id] == nil {
		b.subs[id] = make(map[chan Event]struct{})
	}
	b.subs[id][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[id], ch)
			if len(b.subs[id]) == 0 {
				delete(b.subs, id)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel
}

// Subscribers returns the number of live subscriptions for id.
func (b *MemoryBus) Subscribers(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[id])
}

// RedisBus delivers events through Redis pub/sub so that every server
// instance sees changes made on the others.
type RedisBus struct {
	cache *cache.Cache
}

func NewRedisBus(c *cache.Cache) *RedisBus {
	return &RedisBus{cache: c}
}

func (b *RedisBus) channel(id string) string {
	return b.cache.Key("events", id)
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	if b == nil || b.cache == nil {
		return fmt.Errorf("event bus cache is nil")
	}
	if e.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.cache.Client.Publish(ctx, b.channel(e.ID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, id string) (<-chan Event, func()) {
	ps := b.cache.Client.Subscribe(ctx, b.channel(id))
	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			ps.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					slog.Warn("invalid state event", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- e:
				default:
					slog.Warn("dropping state event for slow subscriber", "id", e.ID, "kind", e.Kind)
				}
			}
		}
	}()
	return out, cancel
}
