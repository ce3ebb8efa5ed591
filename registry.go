package project

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-project/layering"
	"github.com/goliatone/go-project/pkg/bus"
)

var (
	// ErrEmptyScope indicates a registration without a scope name.
	ErrEmptyScope = errors.New("project: scope must not be empty")
	// ErrNilContribution indicates a registration without a contribution.
	ErrNilContribution = errors.New("project: contribution must not be nil")
)

// Contribution is a unit of partial configuration registered against a scope.
type Contribution interface {
	Partial(ctx EvalContext) (map[string]any, error)
}

// Static is a fixed partial document. Partial returns a fresh clone on every
// call so the registered value stays immutable.
type Static map[string]any

// Partial implements the Contribution interface.
func (s Static) Partial(EvalContext) (map[string]any, error) {
	return layering.Clone(map[string]any(s)), nil
}

// ProducerFunc adapts a zero-argument producer to the Contribution interface.
// The function is re-invoked on every composition, so producers that reflect
// current state are allowed and expected.
type ProducerFunc func() map[string]any

// Partial implements the Contribution interface.
func (f ProducerFunc) Partial(EvalContext) (map[string]any, error) {
	if f == nil {
		return nil, ErrNilContribution
	}
	return f(), nil
}

// Producer adapts a context-aware producer to the Contribution interface.
type Producer func(ctx EvalContext) (map[string]any, error)

// Partial implements the Contribution interface.
func (f Producer) Partial(ctx EvalContext) (map[string]any, error) {
	if f == nil {
		return nil, ErrNilContribution
	}
	return f(ctx)
}

// Registry is a process-wide table mapping a scope name to an ordered
// sequence of contributions. Registration order is composition order;
// registrations are append-only and never removed.
type Registry struct {
	mu     sync.RWMutex
	scopes map[string][]Contribution
	logger RegistryLogger
	bus    *bus.Bus
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger attaches a diagnostics logger to the registry.
func WithRegistryLogger(logger RegistryLogger) RegistryOption {
	return func(r *Registry) {
		if logger == nil {
			r.logger = noopRegistryLogger{}
			return
		}
		r.logger = logger
	}
}

// WithRegistryBus emits extension lifecycle events on b for every
// registration attempt.
func WithRegistryBus(b *bus.Bus) RegistryOption {
	return func(r *Registry) {
		r.bus = b
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		scopes: map[string][]Contribution{},
		logger: noopRegistryLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the process-wide registry, constructed lazily
// exactly once. Its state persists for the lifetime of the process.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register appends contribution to the ordered sequence for scope, creating
// the sequence if absent. Malformed registrations are logged through the
// configured RegistryLogger and reported as an advisory error; Register never
// panics, so it is always safe to call from collaborator init paths.
func (r *Registry) Register(scope string, contribution Contribution) error {
	event := RegistryLogEvent{
		Scope:        scope,
		Contribution: fmt.Sprintf("%T", contribution),
	}

	switch {
	case scope == "":
		event.Err = ErrEmptyScope
	case contribution == nil:
		event.Err = ErrNilContribution
	}

	if event.Err == nil {
		r.mu.Lock()
		if r.scopes == nil {
			r.scopes = map[string][]Contribution{}
		}
		r.scopes[scope] = append(r.scopes[scope], contribution)
		event.Position = len(r.scopes[scope]) - 1
		r.mu.Unlock()
	}

	r.logger.LogRegistration(event)
	r.emit(event)
	return event.Err
}

// Compose resolves every contribution registered for scope, in registration
// order, and deep-merges the results so later registrations win ties. An
// unregistered scope yields an empty document. Function-valued contributions
// are re-invoked on every call; nothing is memoized.
func (r *Registry) Compose(scope string) (map[string]any, error) {
	return r.ComposeWith(EvalContext{Scope: scope})
}

// ComposeWith behaves like Compose but supplies contributions with the given
// evaluation context, letting expression contributions see the base document.
func (r *Registry) ComposeWith(ctx EvalContext) (map[string]any, error) {
	r.mu.RLock()
	contributions := append([]Contribution(nil), r.scopes[ctx.Scope]...)
	r.mu.RUnlock()

	merged := map[string]any{}
	if len(contributions) == 0 {
		return merged, nil
	}

	snapshot := ctx.snapshot()
	for i, contribution := range contributions {
		partial, err := contribution.Partial(snapshot)
		if err != nil {
			return nil, fmt.Errorf("project: contribution %d for scope %q: %w", i, ctx.scopeLabel(), err)
		}
		if len(partial) == 0 {
			continue
		}
		merged = layering.MergeLayers(partial, merged)
	}
	return merged, nil
}

// Len reports the number of contributions registered for scope.
func (r *Registry) Len(scope string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scopes[scope])
}

// Scopes returns the registered scope names sorted alphabetically.
func (r *Registry) Scopes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scopes))
	for name := range r.scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) emit(event RegistryLogEvent) {
	if r.bus == nil {
		return
	}
	if event.Err != nil {
		_ = r.bus.Emit(context.Background(), bus.BuildExtensionRejectedEvent(event.Scope, event.Err))
		return
	}
	_ = r.bus.Emit(context.Background(), bus.BuildExtensionRegisteredEvent(event.Scope, event.Position, event.Contribution))
}
