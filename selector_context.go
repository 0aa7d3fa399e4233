package slicekit

import "time"

// SelectorContext carries the inputs of a derived selector evaluation.
type SelectorContext struct {
	// State is the flattened slice view, see Slice.View.
	State    map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Slice    string
}

func (ctx SelectorContext) withDefaultNow() SelectorContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx SelectorContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx SelectorContext) withDefaultMaps() SelectorContext {
	if ctx.State == nil {
		ctx.State = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx SelectorContext) sliceLabel() string {
	if ctx.Slice != "" {
		return ctx.Slice
	}
	return "unknown"
}

// Evaluator runs derived selector expressions.
type Evaluator interface {
	Evaluate(ctx SelectorContext, expr string) (any, error)
	Compile(expr string) (CompiledSelector, error)
}

// CompiledSelector is a reusable expression program.
type CompiledSelector interface {
	Evaluate(ctx SelectorContext) (any, error)
}
