package slicekit

import (
	"fmt"
	"sort"
	"time"
)

// Derive evaluates expression against this slice's entry in root.
func (s *Slice) Derive(root RootState, expression string) (any, error) {
	return s.DeriveWith(SelectorContext{}, root, expression)
}

// DeriveWith evaluates expression with caller supplied args and metadata.
// ctx.State and ctx.Slice are filled from root when empty.
func (s *Slice) DeriveWith(ctx SelectorContext, root RootState, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("slicekit: expression must not be empty")
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ctx = s.selectorContext(ctx, root)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expression)
	s.logSelector(evaluator, expression, time.Since(start), evalErr)
	if evalErr != nil {
		return nil, wrapSelectorError(evaluatorEngineName(evaluator), expression, s.name, evalErr)
	}
	return value, nil
}

// Derived evaluates the selector registered under name with WithDerived.
func (s *Slice) Derived(name string, root RootState) (any, error) {
	compiled, ok := s.derived[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSelector, name)
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	expression := s.cfg.derived[name]
	ctx := s.selectorContext(SelectorContext{}, root)
	start := time.Now()
	value, evalErr := compiled.Evaluate(ctx)
	s.logSelector(evaluator, expression, time.Since(start), evalErr)
	if evalErr != nil {
		return nil, wrapSelectorError(evaluatorEngineName(evaluator), expression, s.name, evalErr)
	}
	return value, nil
}

// DerivedNames lists the registered derived selectors, sorted.
func (s *Slice) DerivedNames() []string {
	names := make([]string, 0, len(s.derived))
	for name := range s.derived {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Slice) compileDerived() error {
	if len(s.cfg.derived) == 0 {
		return nil
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return fmt.Errorf("slicekit: slice %q: %w", s.name, err)
	}
	s.derived = make(map[string]CompiledSelector, len(s.cfg.derived))
	for name, expression := range s.cfg.derived {
		compiled, err := evaluator.Compile(expression)
		if err != nil {
			return fmt.Errorf("slicekit: slice %q: derived selector %q: %w", s.name, name,
				wrapSelectorError(evaluatorEngineName(evaluator), expression, s.name, err))
		}
		s.derived[name] = compiled
	}
	return nil
}

func (s *Slice) selectorContext(ctx SelectorContext, root RootState) SelectorContext {
	if ctx.State == nil {
		state, ok := root[s.name]
		if !ok {
			state = s.InitialState()
		}
		ctx.State = s.View(state)
	}
	if ctx.Slice == "" {
		ctx.Slice = s.name
	}
	return ctx.withDefaultNow().withDefaultMaps()
}

func (s *Slice) resolveEvaluator() (Evaluator, error) {
	if s.cfg.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return s.cfg.evaluator, nil
}

// defaultEvaluator builds the expr evaluator used when none is configured.
func defaultEvaluator(cfg sliceConfig) Evaluator {
	var exprOpts []ExprEvaluatorOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	return NewExprEvaluator(exprOpts...)
}

func (s *Slice) logSelector(evaluator Evaluator, expression string, duration time.Duration, err error) {
	s.log(Diagnostic{
		Kind:     DiagnosticSelector,
		Engine:   evaluatorEngineName(evaluator),
		Expr:     expression,
		Duration: duration,
		Err:      err,
	})
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*slicekit.exprEvaluator":
		return "expr"
	case "*slicekit.celEvaluator":
		return "cel"
	case "*slicekit.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
