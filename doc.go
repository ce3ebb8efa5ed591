// Package project resolves a project's configuration: it locates the project
// root by walking ancestor directories for a marker file, loads a single
// configuration document from that root with cached/forced reload semantics,
// and deep-merges the scoped document with registered extension contributions
// and caller overrides into one canonical snapshot per call.
//
// The resolution order is fixed: the scoped configuration document is the
// weakest layer, extension contributions composed in registration order come
// next, and caller overrides win last. Nested maps merge key-by-key while
// slices are replaced wholesale by the stronger layer; see the layering
// package for the full policy.
//
// Basic usage:
//
//	resolver := project.NewResolver()
//	cfg, err := resolver.Resolve(ctx, project.WithScope("api"))
//
// Independent collaborators contribute partial configuration through a
// Registry without coordinating directly:
//
//	registry := project.DefaultRegistry()
//	registry.Register("api", project.Static{"timeout": "30s"})
//	registry.Register("api", project.ProducerFunc(currentLimits))
//
// Executable configuration is available through explicit expression
// contributions (project.Expr) evaluated by pluggable engines; configuration
// files themselves are always plain structured data.
package project
