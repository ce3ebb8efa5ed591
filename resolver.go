package project

import (
	"context"
	"time"

	"github.com/goliatone/go-project/layering"
	"github.com/goliatone/go-project/pkg/bus"
)

// Resolver orchestrates root discovery, configuration loading, extension
// composition, and override merging into one canonical snapshot per call.
type Resolver struct {
	source   *Source
	registry *Registry
	bus      *bus.Bus
	logger   ResolverLogger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSource replaces the configuration source. Defaults to the process-wide
// Default source.
func WithSource(source *Source) ResolverOption {
	return func(r *Resolver) {
		if source != nil {
			r.source = source
		}
	}
}

// WithRegistry replaces the extension registry. Defaults to the process-wide
// DefaultRegistry.
func WithRegistry(registry *Registry) ResolverOption {
	return func(r *Resolver) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// WithBus emits config.resolved events on b after every successful resolve.
func WithBus(b *bus.Bus) ResolverOption {
	return func(r *Resolver) {
		r.bus = b
	}
}

// WithResolverLogger attaches a diagnostics logger fed after every Resolve
// call, successful or not.
func WithResolverLogger(logger ResolverLogger) ResolverOption {
	return func(r *Resolver) {
		if logger == nil {
			r.logger = noopResolverLogger{}
			return
		}
		r.logger = logger
	}
}

// NewResolver constructs a Resolver with the supplied options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.source == nil {
		r.source = Default()
	}
	if r.registry == nil {
		r.registry = DefaultRegistry()
	}
	if r.logger == nil {
		r.logger = noopResolverLogger{}
	}
	return r
}

type resolveConfig struct {
	scope          string
	overrides      map[string]any
	force          bool
	skipExtensions bool
}

// ResolveOption configures a single Resolve call.
type ResolveOption func(*resolveConfig)

// WithScope addresses a dot-addressable sub-tree of the configuration
// document. A missing scope yields an empty base, never an error.
func WithScope(scope string) ResolveOption {
	return func(cfg *resolveConfig) {
		cfg.scope = scope
	}
}

// WithOverrides supplies a caller override document merged in as the
// strongest layer.
func WithOverrides(overrides map[string]any) ResolveOption {
	return func(cfg *resolveConfig) {
		cfg.overrides = overrides
	}
}

// WithForce discards the cached configuration document before resolving,
// guaranteeing a fresh read of the current on-disk content.
func WithForce() ResolveOption {
	return func(cfg *resolveConfig) {
		cfg.force = true
	}
}

// WithoutExtensions skips the extension registry, composing only the base
// document and the overrides.
func WithoutExtensions() ResolveOption {
	return func(cfg *resolveConfig) {
		cfg.skipExtensions = true
	}
}

func applyResolveOptions(opts []ResolveOption) resolveConfig {
	cfg := resolveConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Resolve produces the canonical configuration snapshot: the scoped document
// as the weakest layer, the composed extension contributions for that scope
// next, and the caller overrides winning last. The result is a fresh value;
// mutating it never affects a later Resolve call. Configuration errors from
// the source propagate unchanged.
func (r *Resolver) Resolve(ctx context.Context, opts ...ResolveOption) (map[string]any, error) {
	cfg := applyResolveOptions(opts)
	start := time.Now()
	layers, err := r.layers(cfg)
	if err != nil {
		r.logResolve(cfg, start, err)
		return nil, err
	}

	documents := make([]map[string]any, len(layers))
	for i, layer := range layers {
		documents[i] = layer.Document
	}
	merged := layering.MergeLayers(documents...)
	if merged == nil {
		merged = map[string]any{}
	}

	r.logResolve(cfg, start, nil)
	if r.bus != nil {
		_ = r.bus.Emit(ctx, bus.BuildConfigResolvedEvent(cfg.scope, cfg.force))
	}
	return merged, nil
}

func (r *Resolver) logResolve(cfg resolveConfig, start time.Time, err error) {
	r.logger.LogResolve(ResolveLogEvent{
		Scope:    cfg.scope,
		Forced:   cfg.force,
		Duration: time.Since(start),
		Err:      err,
	})
}

// Explain resolves the layers for path's scope and reports which layer
// supplies the effective value at path, strongest first.
func (r *Resolver) Explain(_ context.Context, path string, opts ...ResolveOption) (Trace, error) {
	cfg := applyResolveOptions(opts)
	layers, err := r.layers(cfg)
	if err != nil {
		return Trace{}, err
	}

	trace := Trace{Path: path}
	for _, layer := range layers {
		value, found := layering.Lookup(layer.Document, path)
		trace.Layers = append(trace.Layers, Provenance{
			Layer: layer.Name,
			Path:  path,
			Value: value,
			Found: found,
		})
	}
	return trace, nil
}

// Layer pairs a named precedence bucket with its document snapshot.
type Layer struct {
	Name     string
	Document map[string]any
}

// layers returns the resolve layers ordered strongest to weakest.
func (r *Resolver) layers(cfg resolveConfig) ([]Layer, error) {
	doc, err := r.source.Load(cfg.force)
	if err != nil {
		return nil, err
	}

	base := doc
	if cfg.scope != "" {
		scoped, ok := layering.LookupMap(doc, cfg.scope)
		if !ok {
			scoped = map[string]any{}
		}
		base = scoped
	}

	mutation := map[string]any{}
	if !cfg.skipExtensions {
		mutation, err = r.registry.ComposeWith(EvalContext{
			Scope:    cfg.scope,
			Document: base,
		})
		if err != nil {
			return nil, err
		}
	}

	return []Layer{
		{Name: LayerOverrides, Document: cfg.overrides},
		{Name: LayerExtensions, Document: mutation},
		{Name: LayerConfig, Document: base},
	}, nil
}

// ResolveInto resolves the configuration and hydrates it into T.
func ResolveInto[T any](ctx context.Context, r *Resolver, opts ...ResolveOption) (T, error) {
	var zero T
	cfg := applyResolveOptions(opts)
	doc, err := r.Resolve(ctx, opts...)
	if err != nil {
		return zero, err
	}
	return decodeScoped[T](cfg.scope, doc)
}
