package bus

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBusOnAndEmit(t *testing.T) {
	b := New()

	var received []Event
	id := b.On(EventConfigLoaded, HandlerFunc(func(_ context.Context, event Event) error {
		received = append(received, event)
		return nil
	}))
	if id == "" {
		t.Fatal("expected a listener id")
	}

	if err := b.Emit(context.Background(), BuildConfigLoadedEvent("/tmp/project.config.yml")); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if err := b.Emit(context.Background(), BuildConfigResolvedEvent("api", false)); err != nil {
		t.Fatalf("Emit of unrelated event failed: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	event := received[0]
	if event.Name != EventConfigLoaded || event.Path != "/tmp/project.config.yml" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Channel != "project" {
		t.Fatalf("channel = %q, want project", event.Channel)
	}
	if event.OccurredAt.IsZero() {
		t.Fatal("expected a timestamp to be stamped")
	}
}

func TestBusOnceAutoRemoves(t *testing.T) {
	b := New()

	calls := 0
	b.Once(EventConfigReloaded, HandlerFunc(func(context.Context, Event) error {
		calls++
		return nil
	}))

	b.Emit(context.Background(), BuildConfigReloadedEvent("/tmp/a"))
	b.Emit(context.Background(), BuildConfigReloadedEvent("/tmp/b"))

	if calls != 1 {
		t.Fatalf("once listener ran %d times, want 1", calls)
	}
	if count := b.ListenerCount(EventConfigReloaded); count != 0 {
		t.Fatalf("listener count = %d, want 0", count)
	}
}

func TestBusRemoveListener(t *testing.T) {
	b := New()

	calls := 0
	id := b.On(EventConfigLoaded, HandlerFunc(func(context.Context, Event) error {
		calls++
		return nil
	}))
	b.RemoveListener(EventConfigLoaded, id)
	b.RemoveListener(EventConfigLoaded, "unknown")

	b.Emit(context.Background(), BuildConfigLoadedEvent("/tmp/a"))
	if calls != 0 {
		t.Fatalf("removed listener still ran %d times", calls)
	}
}

func TestBusJoinsHandlerErrors(t *testing.T) {
	b := New()

	first := errors.New("first failed")
	second := errors.New("second failed")
	b.On(EventConfigLoaded, &CaptureHandler{Err: first})
	b.On(EventConfigLoaded, &CaptureHandler{Err: second})

	var received Event
	b.On(EventConfigLoaded, HandlerFunc(func(_ context.Context, event Event) error {
		received = event
		return nil
	}))

	err := b.Emit(context.Background(), BuildConfigLoadedEvent("/tmp/a"))
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected both handler errors joined, got %v", err)
	}
	if received.Name != EventConfigLoaded {
		t.Fatal("a failing handler must not stop fan-out to later listeners")
	}
}

func TestBusIgnoresInvalidRegistrations(t *testing.T) {
	b := New()

	if id := b.On("", HandlerFunc(func(context.Context, Event) error { return nil })); id != "" {
		t.Fatal("expected empty name registration to be rejected")
	}
	if id := b.On(EventConfigLoaded, nil); id != "" {
		t.Fatal("expected nil handler registration to be rejected")
	}
	if err := b.Emit(context.Background(), Event{}); err != nil {
		t.Fatalf("emitting a nameless event must be a no-op, got %v", err)
	}
}

func TestBusCustomChannel(t *testing.T) {
	b := New(WithChannel("audit"))

	capture := &CaptureHandler{}
	b.On(EventConfigResolved, capture)
	b.Emit(context.Background(), BuildConfigResolvedEvent("api", true))

	events := capture.Snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Channel != "audit" {
		t.Fatalf("channel = %q, want audit", events[0].Channel)
	}
	if events[0].Metadata["forced"] != true {
		t.Fatalf("metadata = %#v", events[0].Metadata)
	}
}

func TestNormalizeEvent(t *testing.T) {
	raw := Event{
		Name:     "  config.loaded  ",
		Scope:    " api ",
		Path:     " /tmp/a ",
		Metadata: map[string]any{"k": "v"},
	}
	normalized := NormalizeEvent(raw)

	if normalized.Name != "config.loaded" || normalized.Scope != "api" || normalized.Path != "/tmp/a" {
		t.Fatalf("unexpected normalization: %+v", normalized)
	}
	if normalized.OccurredAt.IsZero() {
		t.Fatal("expected a default timestamp")
	}

	raw.Metadata["k"] = "mutated"
	if normalized.Metadata["k"] != "v" {
		t.Fatal("metadata must be cloned during normalization")
	}

	stamped := Event{Name: "x", OccurredAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	if got := NormalizeEvent(stamped); !got.OccurredAt.Equal(stamped.OccurredAt) {
		t.Fatalf("existing timestamp replaced: %v", got.OccurredAt)
	}
}

func TestDefaultBusIsSingleton(t *testing.T) {
	if Default() != Default() {
		t.Fatal("expected Default to return the same bus")
	}
}
