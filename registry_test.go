package project

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/goliatone/go-project/pkg/bus"
)

func TestRegistryComposeUnregisteredScope(t *testing.T) {
	registry := NewRegistry()

	doc, err := registry.Compose("missing")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if doc == nil || len(doc) != 0 {
		t.Fatalf("expected empty document, got %#v", doc)
	}
}

func TestRegistryLaterRegistrationsWin(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register("app", Static{"a": 1}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := registry.Register("app", Static{"a": 2, "b": 3}); err != nil {
		t.Fatalf("second Register failed: %v", err)
	}

	doc, err := registry.Compose("app")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	want := map[string]any{"a": 2, "b": 3}
	if !reflect.DeepEqual(want, doc) {
		t.Fatalf("composed document = %#v, want %#v", doc, want)
	}
}

func TestRegistryComposeMergesNestedMaps(t *testing.T) {
	registry := NewRegistry()
	registry.Register("app", Static{"api": map[string]any{"port": 3000, "host": "localhost"}})
	registry.Register("app", Static{"api": map[string]any{"port": 4000}})

	doc, err := registry.Compose("app")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	want := map[string]any{"api": map[string]any{"port": 4000, "host": "localhost"}}
	if !reflect.DeepEqual(want, doc) {
		t.Fatalf("composed document = %#v, want %#v", doc, want)
	}
}

func TestRegistryProducersReinvokedPerCompose(t *testing.T) {
	registry := NewRegistry()

	calls := 0
	registry.Register("app", ProducerFunc(func() map[string]any {
		calls++
		return map[string]any{"calls": calls}
	}))

	for i := 1; i <= 3; i++ {
		doc, err := registry.Compose("app")
		if err != nil {
			t.Fatalf("Compose %d failed: %v", i, err)
		}
		if doc["calls"] != i {
			t.Fatalf("Compose %d saw calls = %v, want %d", i, doc["calls"], i)
		}
	}
}

func TestRegistryProducerSeesContext(t *testing.T) {
	registry := NewRegistry()
	registry.Register("app", Producer(func(ctx EvalContext) (map[string]any, error) {
		return map[string]any{"scope": ctx.Scope, "base_port": ctx.Document["port"]}, nil
	}))

	doc, err := registry.ComposeWith(EvalContext{
		Scope:    "app",
		Document: map[string]any{"port": 3000},
	})
	if err != nil {
		t.Fatalf("ComposeWith failed: %v", err)
	}
	if doc["scope"] != "app" || doc["base_port"] != 3000 {
		t.Fatalf("unexpected document: %#v", doc)
	}
}

func TestRegistryStaticContributionsStayImmutable(t *testing.T) {
	registry := NewRegistry()
	registry.Register("app", Static{"tags": []any{"a"}})

	first, err := registry.Compose("app")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	first["tags"].([]any)[0] = "mutated"

	second, err := registry.Compose("app")
	if err != nil {
		t.Fatalf("second Compose failed: %v", err)
	}
	if second["tags"].([]any)[0] != "a" {
		t.Fatalf("registered contribution leaked mutation: %#v", second)
	}
}

func TestRegistryRejectsMalformedRegistrations(t *testing.T) {
	var events []RegistryLogEvent
	registry := NewRegistry(WithRegistryLogger(RegistryLoggerFunc(func(event RegistryLogEvent) {
		events = append(events, event)
	})))

	if err := registry.Register("", Static{"a": 1}); !errors.Is(err, ErrEmptyScope) {
		t.Fatalf("expected ErrEmptyScope, got %v", err)
	}
	if err := registry.Register("app", nil); !errors.Is(err, ErrNilContribution) {
		t.Fatalf("expected ErrNilContribution, got %v", err)
	}
	if registry.Len("app") != 0 {
		t.Fatalf("rejected registrations must not be stored, got %d", registry.Len("app"))
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 rejection log events, got %d", len(events))
	}
	for _, event := range events {
		if event.Accepted() {
			t.Errorf("rejection logged as accepted: %+v", event)
		}
	}
}

func TestRegistryEmitsLifecycleEvents(t *testing.T) {
	capture := &bus.CaptureHandler{}
	b := bus.New()
	b.On(bus.EventExtensionRegistered, capture)
	b.On(bus.EventExtensionRejected, capture)

	registry := NewRegistry(WithRegistryBus(b))
	registry.Register("app", Static{"a": 1})
	registry.Register("", Static{"a": 1})

	events := capture.Snapshot()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Name != bus.EventExtensionRegistered {
		t.Errorf("first event = %q, want %q", events[0].Name, bus.EventExtensionRegistered)
	}
	if events[1].Name != bus.EventExtensionRejected {
		t.Errorf("second event = %q, want %q", events[1].Name, bus.EventExtensionRejected)
	}
}

func TestRegistryContributionErrorNamesPosition(t *testing.T) {
	registry := NewRegistry()
	registry.Register("app", Static{"a": 1})
	boom := errors.New("boom")
	registry.Register("app", Producer(func(EvalContext) (map[string]any, error) {
		return nil, boom
	}))

	_, err := registry.Compose("app")
	if err == nil {
		t.Fatal("expected composition to fail")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected the producer error to be wrapped, got %v", err)
	}
}

func TestRegistryScopesSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register("zeta", Static{})
	registry.Register("alpha", Static{})
	registry.Register("middle", Static{})

	want := []string{"alpha", "middle", "zeta"}
	if got := registry.Scopes(); !reflect.DeepEqual(want, got) {
		t.Fatalf("Scopes() = %#v, want %#v", got, want)
	}
}

func TestDefaultRegistryIsSingleton(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Fatal("expected DefaultRegistry to return the same registry")
	}
}

func TestRegistryConcurrentRegisterAndCompose(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Register("app", Static{"n": 1})
		}()
		go func() {
			defer wg.Done()
			if _, err := registry.Compose("app"); err != nil {
				t.Errorf("Compose failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if registry.Len("app") != 8 {
		t.Fatalf("expected 8 contributions, got %d", registry.Len("app"))
	}
}
