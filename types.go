package project

import (
	"time"

	"github.com/goliatone/go-project/layering"
)

// EvalContext carries the inputs a contribution can draw on when producing
// its partial document. Document is a read-only snapshot of the scoped base
// configuration; contributions must not mutate it.
type EvalContext struct {
	Scope    string
	Document map[string]any
	Now      *time.Time
	Metadata map[string]any
}

func (ctx EvalContext) withDefaultNow() EvalContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx EvalContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx EvalContext) withDefaultMaps() EvalContext {
	if ctx.Document == nil {
		ctx.Document = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx EvalContext) scopeLabel() string {
	if ctx.Scope != "" {
		return ctx.Scope
	}
	return "document"
}

// snapshot returns a defensive copy of the context safe to hand to
// caller-supplied code.
func (ctx EvalContext) snapshot() EvalContext {
	out := ctx.withDefaultNow().withDefaultMaps()
	out.Document = layering.Clone(out.Document)
	out.Metadata = layering.Clone(out.Metadata)
	return out
}

// Evaluator executes expressions against an evaluation context.
type Evaluator interface {
	Evaluate(ctx EvalContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx EvalContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}
