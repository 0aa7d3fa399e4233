package slicekit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrFunctionNotFound indicates a selector called an unregistered function.
var ErrFunctionNotFound = errors.New("slicekit: function not registered")

// Function is a callable exposed to derived selector expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry stores selector functions keyed by lower-cased name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// NewListFunctionRegistry returns a registry preloaded with list helpers:
// unique(items), isunique(items) and identity(item).
func NewListFunctionRegistry() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("unique", func(args ...any) (any, error) {
		items, err := itemsArgument("unique", args)
		if err != nil {
			return nil, err
		}
		return Unique(items), nil
	})
	_ = registry.Register("isunique", func(args ...any) (any, error) {
		items, err := itemsArgument("isunique", args)
		if err != nil {
			return nil, err
		}
		return IsUnique(items), nil
	})
	_ = registry.Register("identity", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("slicekit: identity expects 1 argument, got %d", len(args))
		}
		return IdentityKey(args[0]), nil
	})
	return registry
}

func itemsArgument(name string, args []any) ([]any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("slicekit: %s expects 1 argument, got %d", name, len(args))
	}
	items, ok := asItems(args[0])
	if !ok {
		return nil, fmt.Errorf("slicekit: %s expects a list, got %T", name, args[0])
	}
	return items, nil
}

// Register stores fn under name, rejecting duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("slicekit: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("slicekit: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("slicekit: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %q (no registry)", ErrFunctionNotFound, name)
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge registers every function of other into r. Names already present in r
// are reported and keep their existing function.
func (r *FunctionRegistry) Merge(other *FunctionRegistry) error {
	if other == nil {
		return nil
	}
	other.mu.RLock()
	incoming := make(map[string]Function, len(other.functions))
	for name, fn := range other.functions {
		incoming[name] = fn
	}
	other.mu.RUnlock()

	names := make([]string, 0, len(incoming))
	for name := range incoming {
		names = append(names, name)
	}
	sort.Strings(names)
	var errs []error
	for _, name := range names {
		if err := r.Register(name, incoming[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithFunctionRegistry exposes the functions in registry to derived selectors.
// It merges with functions added by WithCustomFunction in any order; a name
// registered twice makes New fail.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *sliceConfig) {
		if registry == nil {
			return
		}
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Merge(registry); err != nil {
			cfg.errs = append(cfg.errs, err)
		}
	}
}

// WithCustomFunction registers fn under name for the slice's selectors.
// Invalid or duplicate registrations make New fail.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *sliceConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.errs = append(cfg.errs, err)
		}
	}
}
