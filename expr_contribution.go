package project

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoEvaluator indicates an expression contribution without an evaluator.
var ErrNoEvaluator = errors.New("project: evaluator not configured")

// ExprContributionOption configures an expression contribution.
type ExprContributionOption func(*exprContribution)

// ExprWithEvaluator selects the evaluator engine for the contribution.
// Defaults to the expr-lang engine.
func ExprWithEvaluator(evaluator Evaluator) ExprContributionOption {
	return func(c *exprContribution) {
		if evaluator != nil {
			c.evaluator = evaluator
		}
	}
}

// ExprWithLogger attaches an evaluation logger to the contribution.
func ExprWithLogger(logger EvaluatorLogger) ExprContributionOption {
	return func(c *exprContribution) {
		if logger == nil {
			c.logger = noopEvaluatorLogger{}
			return
		}
		c.logger = logger
	}
}

// Expr registers executable configuration through an explicit expression: on
// every composition the expression is evaluated against the current base
// document and must yield a map. This is the only executable path in the
// engine; configuration files themselves stay plain data.
func Expr(expression string, opts ...ExprContributionOption) Contribution {
	c := &exprContribution{
		expression: expression,
		logger:     noopEvaluatorLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type exprContribution struct {
	expression string
	evaluator  Evaluator
	logger     EvaluatorLogger
}

// Partial implements the Contribution interface.
func (c *exprContribution) Partial(ctx EvalContext) (map[string]any, error) {
	if c.expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	evaluator := c.evaluator
	if evaluator == nil {
		evaluator = NewExprEvaluator()
	}
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}

	ctx = ctx.withDefaultNow().withDefaultMaps()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, c.expression)
	duration := time.Since(start)
	err = wrapEvaluationError(engine, c.expression, ctx.scopeLabel(), err)
	c.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     c.expression,
		Scope:    ctx.scopeLabel(),
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return nil, err
	}

	partial, ok := value.(map[string]any)
	if !ok {
		return nil, wrapEvaluationError(engine, c.expression, ctx.scopeLabel(),
			fmt.Errorf("expression must produce a map, got %T", value))
	}
	return partial, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(interface{ engineName() string }); ok {
		return named.engineName()
	}
	return "custom"
}
