package slicekit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNameRequired indicates a slice was built without a name.
	ErrNameRequired = errors.New("slicekit: slice name is required")
	// ErrInvalidName indicates a slice name that cannot namespace keys.
	ErrInvalidName = errors.New("slicekit: invalid slice name")
	// ErrKeyRequired indicates an empty base key.
	ErrKeyRequired = errors.New("slicekit: field key is required")
	// ErrKeyCollision indicates two base keys resolve to the same namespaced key.
	ErrKeyCollision = errors.New("slicekit: field key collision")
	// ErrUnknownSelector indicates a derived selector name was never registered.
	ErrUnknownSelector = errors.New("slicekit: unknown derived selector")
	// ErrNoEvaluator indicates no expression engine could be resolved.
	ErrNoEvaluator = errors.New("slicekit: evaluator not configured")
)

// SelectorError captures derived selector metadata alongside the originating
// error.
type SelectorError struct {
	Engine string
	Expr   string
	Slice  string
	Err    error
}

func (e *SelectorError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("slicekit: %s selector %s slice=%s: %v", e.Engine, describeExpression(e.Expr), e.Slice, e.Err)
}

func (e *SelectorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEngineError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var selErr *SelectorError
	if errors.As(err, &selErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "slicekit:") {
		return err
	}
	return fmt.Errorf("slicekit: %s evaluator: %w", engine, err)
}

// wrapSelectorError fills missing metadata on an existing SelectorError or
// wraps err in a new one.
func wrapSelectorError(engine, expr, slice string, err error) error {
	if err == nil {
		return nil
	}

	var selErr *SelectorError
	if errors.As(err, &selErr) {
		if selErr.Engine == "" {
			selErr.Engine = engine
		}
		if selErr.Expr == "" {
			selErr.Expr = expr
		}
		if selErr.Slice == "" {
			selErr.Slice = slice
		}
		return selErr
	}

	return &SelectorError{
		Engine: engine,
		Expr:   expr,
		Slice:  slice,
		Err:    err,
	}
}
