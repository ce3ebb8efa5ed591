// Package bus provides a small process-wide publish/subscribe bus used to
// observe configuration lifecycle events. The default bus is constructed
// lazily on first use and never rebuilt for the lifetime of the process.
package bus

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event describes an occurrence fanned out to listeners.
type Event struct {
	Name       string
	Scope      string
	Path       string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Handler receives normalized events.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc allows plain functions to satisfy Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle dispatches to the underlying function.
func (fn HandlerFunc) Handle(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

type subscription struct {
	id      string
	once    bool
	handler Handler
}

// Bus fans out events to listeners registered per event name.
type Bus struct {
	mu        sync.Mutex
	listeners map[string][]subscription
	channel   string
}

// Option configures a Bus.
type Option func(*Bus)

// WithChannel sets the default channel stamped on emitted events that carry
// none of their own.
func WithChannel(channel string) Option {
	return func(b *Bus) {
		if channel = strings.TrimSpace(channel); channel != "" {
			b.channel = channel
		}
	}
}

// New constructs an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		listeners: map[string][]subscription{},
		channel:   "project",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

var (
	defaultOnce sync.Once
	defaultBus  *Bus
)

// Default returns the process-wide bus, constructed lazily exactly once.
func Default() *Bus {
	defaultOnce.Do(func() {
		defaultBus = New()
	})
	return defaultBus
}

// On registers handler for every emission of name and returns the listener
// id used for removal.
func (b *Bus) On(name string, handler Handler) string {
	return b.subscribe(name, handler, false)
}

// Once registers handler for a single emission of name; the listener removes
// itself before the handler runs.
func (b *Bus) Once(name string, handler Handler) string {
	return b.subscribe(name, handler, true)
}

func (b *Bus) subscribe(name string, handler Handler, once bool) string {
	if name == "" || handler == nil {
		return ""
	}
	id := uuid.NewString()
	b.mu.Lock()
	if b.listeners == nil {
		b.listeners = map[string][]subscription{}
	}
	b.listeners[name] = append(b.listeners[name], subscription{
		id:      id,
		once:    once,
		handler: handler,
	})
	b.mu.Unlock()
	return id
}

// RemoveListener detaches the listener registered under id for name. Unknown
// ids are ignored.
func (b *Bus) RemoveListener(name, id string) {
	if name == "" || id == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.listeners[name]
	for i, sub := range subs {
		if sub.id == id {
			b.listeners[name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// ListenerCount reports how many listeners are registered for name.
func (b *Bus) ListenerCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[name])
}

// Emit forwards the event to every listener registered for its name,
// returning a joined error if any handler fails. Once-listeners are detached
// before their handler runs, so re-emission from inside a handler cannot
// trigger them twice.
func (b *Bus) Emit(ctx context.Context, event Event) error {
	normalized := NormalizeEvent(event)
	if normalized.Name == "" {
		return nil
	}
	if normalized.Channel == "" {
		normalized.Channel = b.channel
	}
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.Lock()
	subs := append([]subscription(nil), b.listeners[normalized.Name]...)
	if len(subs) > 0 {
		kept := b.listeners[normalized.Name][:0]
		for _, sub := range b.listeners[normalized.Name] {
			if !sub.once {
				kept = append(kept, sub)
			}
		}
		b.listeners[normalized.Name] = kept
	}
	b.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if sub.handler == nil {
			continue
		}
		if err := sub.handler.Handle(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace, clones metadata, and ensures a timestamp
// is present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Name = strings.TrimSpace(event.Name)
	normalized.Scope = strings.TrimSpace(event.Scope)
	normalized.Path = strings.TrimSpace(event.Path)
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
