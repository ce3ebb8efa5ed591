package project

import "time"

// RegistryLogEvent describes the outcome of a registration attempt.
type RegistryLogEvent struct {
	Scope        string
	Contribution string
	Position     int
	Err          error
}

// Accepted reports whether the contribution made it into the registry.
func (e RegistryLogEvent) Accepted() bool {
	return e.Err == nil
}

// RegistryLogger records registration diagnostics. Malformed registrations
// are logged, never raised, so batch registration from independent
// collaborators stays resilient to individual mistakes.
type RegistryLogger interface {
	LogRegistration(RegistryLogEvent)
}

// RegistryLoggerFunc adapts a function to RegistryLogger.
type RegistryLoggerFunc func(RegistryLogEvent)

// LogRegistration implements RegistryLogger.
func (f RegistryLoggerFunc) LogRegistration(event RegistryLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopRegistryLogger struct{}

func (noopRegistryLogger) LogRegistration(RegistryLogEvent) {}

// ResolveLogEvent describes a completed resolution attempt.
type ResolveLogEvent struct {
	Scope    string
	Forced   bool
	Duration time.Duration
	Err      error
}

// ResolverLogger records resolution diagnostics.
type ResolverLogger interface {
	LogResolve(ResolveLogEvent)
}

// ResolverLoggerFunc adapts a function to ResolverLogger.
type ResolverLoggerFunc func(ResolveLogEvent)

// LogResolve implements ResolverLogger.
func (f ResolverLoggerFunc) LogResolve(event ResolveLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopResolverLogger struct{}

func (noopResolverLogger) LogResolve(ResolveLogEvent) {}

// EvaluatorLogEvent describes an expression evaluation attempt.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Scope    string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}
