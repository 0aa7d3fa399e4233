package slicekit

// DeriveInitialState builds the namespaced state for fields. A field is copied
// verbatim when it is a scalar or when defaults are disabled for it; every
// other field is wrapped in a fresh ListState seeded with its items.
func DeriveInitialState(name string, fields Fields, defaults DefaultsPolicy) State {
	state := make(State, len(fields))
	for key, field := range fields {
		state[Namespace(name, key)] = initialValue(key, field, defaults)
	}
	return state
}

func initialValue(key string, field Field, defaults DefaultsPolicy) any {
	if field.Kind == FieldList && !defaults.Disabled(key) {
		return NewListState(field.Seed)
	}
	if field.Kind == FieldList {
		return cloneItems(field.Seed)
	}
	return field.Value
}

func usesListDefaults(key string, field Field, defaults DefaultsPolicy) bool {
	return field.Kind == FieldList && !defaults.Disabled(key)
}
