package slicekit

import "strings"

// Select reads field from the named slice in root. field may be a base key
// or an already namespaced key.
func Select(root RootState, sliceName, field string) (any, bool) {
	state, ok := root[sliceName]
	if !ok {
		return nil, false
	}
	key := field
	if !strings.HasPrefix(field, sliceName+KeySeparator) {
		key = Namespace(sliceName, field)
	}
	value, ok := state[key]
	return value, ok
}

// Select reads field from this slice's entry in root.
func (s *Slice) Select(root RootState, field string) (any, bool) {
	return s.SelectFrom(root[s.name], field)
}

// SelectFrom reads field from the slice state itself.
func (s *Slice) SelectFrom(state State, field string) (any, bool) {
	namespaced, ok := s.keys.Namespaced(field)
	if !ok {
		s.log(Diagnostic{Kind: DiagnosticInvalidKey, Key: field, Message: "selector field not declared"})
		return nil, false
	}
	value, ok := state[namespaced]
	return value, ok
}

// SelectList reads a paginated field from root.
func (s *Slice) SelectList(root RootState, field string) (ListState, bool) {
	value, ok := s.Select(root, field)
	if !ok {
		return ListState{}, false
	}
	switch typed := value.(type) {
	case ListState:
		return typed, true
	case *ListState:
		if typed == nil {
			return ListState{}, false
		}
		return *typed, true
	case map[string]any:
		return ListStateFromMap(typed), true
	}
	return ListState{}, false
}

// Selector returns an accessor for field bound to this slice.
func (s *Slice) Selector(field string) func(RootState) any {
	return func(root RootState) any {
		value, _ := s.Select(root, field)
		return value
	}
}

// Selectors returns one accessor per declared field keyed by base key.
func (s *Slice) Selectors() map[string]func(RootState) any {
	keys := s.keys.Keys()
	selectors := make(map[string]func(RootState) any, len(keys))
	for _, key := range keys {
		selectors[key] = s.Selector(key)
	}
	return selectors
}

// View flattens state into base keys. List envelopes are exposed through
// ListState.Map so expression engines can reach their fields.
func (s *Slice) View(state State) map[string]any {
	view := make(map[string]any, len(state))
	for _, key := range s.keys.Keys() {
		value, ok := state[Namespace(s.name, key)]
		if !ok {
			continue
		}
		switch typed := value.(type) {
		case ListState:
			view[key] = typed.Map()
		case *ListState:
			if typed != nil {
				view[key] = typed.Map()
			}
		default:
			view[key] = value
		}
	}
	return view
}
