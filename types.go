package slicekit

import (
	"reflect"

	deepcopy "github.com/tiendc/go-deepcopy"
)

// State holds one slice's fields keyed by their namespaced key. Scalar fields
// store the raw value, paginated list fields store a ListState.
type State map[string]any

// RootState is the combined host state keyed by slice name.
type RootState map[string]State

// Clone returns a deep copy of s. When a value cannot be deep copied the map
// is copied shallowly and list envelopes get fresh result slices.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	var out State
	if err := deepcopy.Copy(&out, s); err == nil && out != nil {
		return out
	}
	out = make(State, len(s))
	for key, value := range s {
		if list, ok := value.(ListState); ok {
			value = list.clone()
		}
		out[key] = value
	}
	return out
}

func (s State) shallow() State {
	out := make(State, len(s))
	for key, value := range s {
		out[key] = value
	}
	return out
}

// Clone returns a deep copy of every slice state in r.
func (r RootState) Clone() RootState {
	if r == nil {
		return nil
	}
	out := make(RootState, len(r))
	for name, state := range r {
		out[name] = state.Clone()
	}
	return out
}

// ListState is the envelope kept for paginated list fields.
type ListState struct {
	Results   []any `json:"results"`
	IsLoading bool  `json:"isLoading"`
	HasMore   bool  `json:"hasMore"`
	Page      any   `json:"page"`
	Errors    any   `json:"errors"`
}

// NewListState returns the initial envelope for a list seeded with seed.
func NewListState(seed []any) ListState {
	return ListState{
		Results: cloneItems(seed),
		HasMore: true,
		Page:    0,
	}
}

func (l ListState) clone() ListState {
	l.Results = cloneItems(l.Results)
	return l
}

// Map exposes the envelope using the field names host code expects.
func (l ListState) Map() map[string]any {
	return map[string]any{
		"results":   l.Results,
		"isLoading": l.IsLoading,
		"hasMore":   l.HasMore,
		"page":      l.Page,
		"errors":    l.Errors,
	}
}

// Payload is the untrusted body carried by an action. Results is expected to
// be a slice but any value is accepted.
type Payload struct {
	Results   any
	Page      any
	Errors    any
	IsLoading *bool

	// Snapshot carries hydrate data keyed by slice name.
	Snapshot RootState
	// Value is handed to custom case reducers untouched.
	Value any
}

// Meta carries the async-operation metadata of an action.
type Meta struct {
	// QueryType identifies the field targeted by a lifecycle or page-data
	// action. Base and namespaced keys are both accepted.
	QueryType string
	RequestID string
	Arg       map[string]any
}

// Action is the event value reduced by a Slice.
type Action struct {
	Type    string
	Meta    Meta
	Payload Payload
	Error   any
}

func cloneItems(items []any) []any {
	if items == nil {
		return nil
	}
	out := make([]any, len(items))
	copy(out, items)
	return out
}

// asItems reports whether value is a slice or array and returns its elements.
func asItems(value any) ([]any, bool) {
	switch typed := value.(type) {
	case nil:
		return nil, false
	case []any:
		return typed, true
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, true
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func pageNumber(page any) (float64, bool) {
	rv := reflect.ValueOf(page)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func isFirstPage(page any) bool {
	n, ok := pageNumber(page)
	return ok && n == 1
}
