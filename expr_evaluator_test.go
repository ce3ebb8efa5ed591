package project

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestExprEvaluatorDocumentKeys(t *testing.T) {
	evaluator := NewExprEvaluator()

	ctx := EvalContext{
		Scope:    "api",
		Document: map[string]any{"port": 3000, "host": "localhost"},
	}

	result, err := evaluator.Evaluate(ctx, "port + 1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result != 3001 {
		t.Fatalf("result = %v, want 3001", result)
	}
}

func TestExprEvaluatorMapResult(t *testing.T) {
	evaluator := NewExprEvaluator()

	ctx := EvalContext{Document: map[string]any{"port": 3000}}
	result, err := evaluator.Evaluate(ctx, `{host: "localhost", port: port + 1000}`)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	want := map[string]any{"host": "localhost", "port": 4000}
	if !reflect.DeepEqual(want, result) {
		t.Fatalf("result = %#v, want %#v", result, want)
	}
}

func TestExprEvaluatorBuiltinEnvironment(t *testing.T) {
	evaluator := NewExprEvaluator()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := EvalContext{
		Scope:    "api",
		Now:      &now,
		Metadata: map[string]any{"version": "1.2.3"},
		Document: map[string]any{"port": 3000},
	}

	result, err := evaluator.Evaluate(ctx, "scope")
	if err != nil {
		t.Fatalf("Evaluate scope failed: %v", err)
	}
	if result != "api" {
		t.Fatalf("scope = %v, want api", result)
	}

	result, err = evaluator.Evaluate(ctx, `metadata.version`)
	if err != nil {
		t.Fatalf("Evaluate metadata failed: %v", err)
	}
	if result != "1.2.3" {
		t.Fatalf("metadata.version = %v, want 1.2.3", result)
	}

	result, err = evaluator.Evaluate(ctx, `document.port`)
	if err != nil {
		t.Fatalf("Evaluate document failed: %v", err)
	}
	if result != 3000 {
		t.Fatalf("document.port = %v, want 3000", result)
	}
}

func TestExprEvaluatorEmptyExpression(t *testing.T) {
	evaluator := NewExprEvaluator()
	if _, err := evaluator.Evaluate(EvalContext{}, ""); err == nil {
		t.Fatal("expected empty expression to fail")
	}
}

func TestExprEvaluatorMalformedExpression(t *testing.T) {
	evaluator := NewExprEvaluator()
	_, err := evaluator.Evaluate(EvalContext{Scope: "api"}, "port +")
	if err == nil {
		t.Fatal("expected malformed expression to fail")
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T: %v", err, err)
	}
	if !strings.HasPrefix(err.Error(), "project:") {
		t.Fatalf("error message missing prefix: %s", err.Error())
	}
}

func TestExprEvaluatorProgramCache(t *testing.T) {
	cache := NewMemoryProgramCache()
	evaluator := NewExprEvaluator(ExprWithProgramCache(cache))

	const expression = "port * 2"
	if _, ok := cache.Get(expression); ok {
		t.Fatal("cache must start empty")
	}

	ctx := EvalContext{Document: map[string]any{"port": 3000}}
	result, err := evaluator.Evaluate(ctx, expression)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result != 6000 {
		t.Fatalf("result = %v, want 6000", result)
	}
	if _, ok := cache.Get(expression); !ok {
		t.Fatal("expected the compiled program to be cached")
	}

	result, err = evaluator.Evaluate(ctx, expression)
	if err != nil {
		t.Fatalf("cached Evaluate failed: %v", err)
	}
	if result != 6000 {
		t.Fatalf("cached result = %v, want 6000", result)
	}
}

func TestExprEvaluatorFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("double", func(args ...any) (any, error) {
		return args[0].(int) * 2, nil
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	evaluator := NewExprEvaluator(ExprWithFunctionRegistry(registry))

	result, err := evaluator.Evaluate(EvalContext{}, "double(21)")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result != 42 {
		t.Fatalf("result = %v, want 42", result)
	}

	result, err = evaluator.Evaluate(EvalContext{}, `call("double", 10)`)
	if err != nil {
		t.Fatalf("Evaluate via call failed: %v", err)
	}
	if result != 20 {
		t.Fatalf("call result = %v, want 20", result)
	}
}

func TestExprCompiledRule(t *testing.T) {
	evaluator := NewExprEvaluator(ExprWithProgramCache(NewMemoryProgramCache()))

	rule, err := evaluator.Compile("port + 1")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	for _, port := range []int{100, 200} {
		result, err := rule.Evaluate(EvalContext{Document: map[string]any{"port": port}})
		if err != nil {
			t.Fatalf("rule Evaluate failed: %v", err)
		}
		if result != port+1 {
			t.Fatalf("result = %v, want %d", result, port+1)
		}
	}
}

func TestExprCompileEmptyExpression(t *testing.T) {
	evaluator := NewExprEvaluator()
	if _, err := evaluator.Compile(""); err == nil {
		t.Fatal("expected Compile of empty expression to fail")
	}
}
