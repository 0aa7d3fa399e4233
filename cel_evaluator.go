package slicekit

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

var anySliceType = reflect.TypeOf([]any{})

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
	// fields are the view keys bound as top-level variables.
	fields []string
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Every top-level
// field of the slice view is declared as a dynamic variable, so programs are
// cached per expression and field set.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx SelectorContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	program, err := e.loadOrCompile(expression, ctx.State)
	if err != nil {
		return nil, wrapSelectorError("cel", expression, ctx.sliceLabel(), err)
	}
	out, _, err := program.program.Eval(e.activation(ctx, program.fields))
	if err != nil {
		return nil, wrapSelectorError("cel", expression, ctx.sliceLabel(), err)
	}
	return out.Value(), nil
}

// Compile parses expression eagerly against an empty view so syntax errors
// surface early; type checking happens per evaluation once the view is known.
func (e *celEvaluator) Compile(expression string) (CompiledSelector, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	env, _, err := e.buildEnv(nil)
	if err != nil {
		return nil, wrapSelectorError("cel", expression, "", err)
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, wrapSelectorError("cel", expression, "", issues.Err())
	}
	return &celCompiledSelector{
		evaluator:  e,
		expression: expression,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, view map[string]any) (*celProgram, error) {
	cacheKey := celCacheKey(expression, view)
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, fields, err := e.buildEnv(view)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
		fields:  fields,
	}
	if e.cache != nil {
		e.cache.Set(cacheKey, bundle)
	}
	return bundle, nil
}

func celCacheKey(expression string, view map[string]any) string {
	keys := make([]string, 0, len(view))
	for key := range view {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return "cel:" + strings.Join(keys, ",") + ":" + expression
}

// buildEnv declares the selector variables plus one dynamic variable per view
// key. Keys that clash with an identifier CEL already declares (list, map,
// int and the other type names) are left out and stay reachable as
// state.<key>.
func (e *celEvaluator) buildEnv(view map[string]any) (*celgo.Env, []string, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("slice", celgo.StringType),
		celgo.Variable("state", celgo.DynType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType, celgo.DynType},
			celgo.DynType,
			celgo.FunctionBinding(e.callBinding()),
		)))
	}
	base, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, nil, err
	}
	if len(view) == 0 {
		return base, nil, nil
	}

	declared := make(map[string]struct{})
	for _, variable := range base.Variables() {
		declared[variable.Name()] = struct{}{}
	}
	fields := make([]string, 0, len(view))
	for key := range view {
		if _, clash := declared[key]; clash || isReservedSelectorName(key) {
			continue
		}
		fields = append(fields, key)
	}
	if len(fields) == 0 {
		return base, nil, nil
	}
	sort.Strings(fields)
	vars := make([]celgo.EnvOption, 0, len(fields))
	for _, key := range fields {
		vars = append(vars, celgo.Variable(key, celgo.DynType))
	}
	env, err := base.Extend(vars...)
	if err != nil {
		return nil, nil, err
	}
	return env, fields, nil
}

func isReservedSelectorName(name string) bool {
	switch name {
	case "now", "args", "metadata", "slice", "state", "call":
		return true
	}
	return false
}

func (e *celEvaluator) activation(ctx SelectorContext, fields []string) map[string]any {
	activation := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"slice":    ctx.Slice,
		"state":    ctx.State,
	}
	for _, key := range fields {
		activation[key] = ctx.State[key]
	}
	return activation
}

type celCompiledSelector struct {
	evaluator  *celEvaluator
	expression string
}

func (c *celCompiledSelector) Evaluate(ctx SelectorContext) (any, error) {
	if c.evaluator == nil {
		return nil, wrapEngineError("cel", fmt.Errorf("compiled selector missing evaluator"))
	}
	return c.evaluator.Evaluate(ctx, c.expression)
}

// callBinding exposes call(name, args) where args is a list forwarded to the
// registered function.
func (e *celEvaluator) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("slicekit: function registry not configured")
		}
		if len(values) != 2 {
			return types.NewErr("slicekit: call requires a function name and an argument list")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("slicekit: call name must be string")
		}
		args := []any{values[1].Value()}
		if native, err := values[1].ConvertToNative(anySliceType); err == nil {
			if list, ok := native.([]any); ok {
				args = list
			}
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
