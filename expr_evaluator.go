package slicekit

import (
	"fmt"
	"sort"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprparser "github.com/expr-lang/expr/parser"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache wires a ProgramCache into the expr evaluator.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr evaluator.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprEvaluator runs selector expressions with github.com/expr-lang/expr.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate compiles expression against the slice view in ctx (through the
// cache when present) and runs it. Fields shadow expr builtins of the same
// name, so a field called count is read as the field.
func (e *exprEvaluator) Evaluate(ctx SelectorContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	env := e.environment(ctx)
	program, err := e.loadOrCompile(expression, env)
	if err != nil {
		return nil, wrapSelectorError("expr", expression, ctx.sliceLabel(), err)
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapSelectorError("expr", expression, ctx.sliceLabel(), err)
	}
	return result, nil
}

// Compile checks the syntax of expression. Type checking needs the view, so
// programs are built per view shape on evaluation.
func (e *exprEvaluator) Compile(expression string) (CompiledSelector, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	if _, err := exprparser.Parse(expression); err != nil {
		return nil, wrapSelectorError("expr", expression, "", err)
	}
	return &exprCompiledSelector{
		evaluator:  e,
		expression: expression,
	}, nil
}

func (e *exprEvaluator) loadOrCompile(expression string, env map[string]any) (*exprvm.Program, error) {
	cacheKey := exprCacheKey(expression, env)
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(env),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			options = append(options, exprlang.Function(name, e.registryFunction(name)))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(cacheKey, program)
	}
	return program, nil
}

// exprCacheKey identifies a program by expression and the names and Go types
// of the environment it was checked against.
func exprCacheKey(expression string, env map[string]any) string {
	shape := make([]string, 0, len(env))
	for key, value := range env {
		shape = append(shape, fmt.Sprintf("%s=%T", key, value))
	}
	sort.Strings(shape)
	return "expr:" + strings.Join(shape, ",") + ":" + expression
}

type exprCompiledSelector struct {
	evaluator  *exprEvaluator
	expression string
}

func (c *exprCompiledSelector) Evaluate(ctx SelectorContext) (any, error) {
	if c.evaluator == nil {
		return nil, wrapEngineError("expr", fmt.Errorf("compiled selector missing evaluator"))
	}
	return c.evaluator.Evaluate(ctx, c.expression)
}

func (e *exprEvaluator) environment(ctx SelectorContext) map[string]any {
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"slice":    ctx.Slice,
		"state":    ctx.State,
	}
	for key, value := range ctx.State {
		if isReservedSelectorName(key) {
			continue
		}
		env[key] = value
	}
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
	}
	return env
}

func (e *exprEvaluator) registryFunction(name string) func(...any) (any, error) {
	return func(arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
}
