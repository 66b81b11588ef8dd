package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/p-n-ai/tkb/internal/state"
)

func receive(t *testing.T, ch <-chan state.Event) state.Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return state.Event{}
}

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := state.NewMemoryBus()
	ctx := t.Context()

	a, cancelA := bus.Subscribe(ctx, "u1")
	defer cancelA()
	other, cancelOther := bus.Subscribe(ctx, "u2")
	defer cancelOther()

	if err := bus.Publish(ctx, state.Event{ID: "u1", Kind: state.EventUpdated}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	e := receive(t, a)
	if e.Kind != state.EventUpdated || e.At.IsZero() {
		t.Errorf("event = %+v", e)
	}
	select {
	case e := <-other:
		t.Errorf("u2 received %+v", e)
	default:
	}
}

func TestMemoryBus_Cancel(t *testing.T) {
	bus := state.NewMemoryBus()
	ctx, cancelCtx := context.WithCancel(t.Context())

	ch, cancel := bus.Subscribe(ctx, "u1")
	if bus.Subscribers("u1") != 1 {
		t.Fatalf("Subscribers() = %d, want 1", bus.Subscribers("u1"))
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	if bus.Subscribers("u1") != 0 {
		t.Errorf("Subscribers() = %d, want 0", bus.Subscribers("u1"))
	}

	ch2, _ := bus.Subscribe(ctx, "u1")
	cancelCtx()
	select {
	case _, ok := <-ch2:
		if ok {
			t.Error("unexpected event")
		}
	case <-time.After(2 * time.Second):
		t.Error("channel not closed after context cancel")
	}
}

func TestMemoryBus_RequiresID(t *testing.T) {
	if err := state.NewMemoryBus().Publish(t.Context(), state.Event{Kind: state.EventReset}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestService_PublishesChanges(t *testing.T) {
	svc := newService(t)
	bus := state.NewMemoryBus()
	svc.SetBus(bus)

	ch, cancel := bus.Subscribe(t.Context(), "u1")
	defer cancel()

	if _, err := svc.Replace(t.Context(), "u1", state.State{Data: algebraLine, Week: 2}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if e := receive(t, ch); e.Kind != state.EventUpdated || e.ID != "u1" {
		t.Errorf("event = %+v, want updated u1", e)
	}

	if err := svc.Reset(t.Context(), "u1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if e := receive(t, ch); e.Kind != state.EventReset {
		t.Errorf("event = %+v, want reset", e)
	}
}

func TestRedisBus_NilCache(t *testing.T) {
	var bus *state.RedisBus
	if err := bus.Publish(t.Context(), state.Event{ID: "u1"}); err == nil {
		t.Fatal("expected error for nil cache")
	}
}
