package slicekit

import (
	"reflect"
	"sort"
)

// FieldKind tags a field declaration.
type FieldKind int

const (
	// FieldScalar fields hold their value verbatim.
	FieldScalar FieldKind = iota + 1
	// FieldList fields are wrapped in a ListState envelope.
	FieldList
)

func (k FieldKind) String() string {
	switch k {
	case FieldScalar:
		return "scalar"
	case FieldList:
		return "list"
	default:
		return "unknown"
	}
}

// Field declares the seed of one slice field.
type Field struct {
	Kind  FieldKind
	Value any
	Seed  []any
}

// Scalar declares a field whose value is stored without an envelope.
func Scalar(value any) Field {
	return Field{Kind: FieldScalar, Value: value}
}

// PaginatedList declares a list field seeded with items. The seed is never
// nil, so an empty list renders as [] rather than null.
func PaginatedList(items ...any) Field {
	return Field{Kind: FieldList, Seed: append(make([]any, 0, len(items)), items...)}
}

// Fields maps base keys to declarations.
type Fields map[string]Field

// Keys returns the declared base keys sorted alphabetically.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// InferFields declares fields from plain seed values. Numbers, strings and
// booleans become scalars; everything else becomes a paginated list. Slices
// seed the list with their items, nil seeds an empty list, and any other
// value (maps, structs, pointers) becomes the single seeded item.
func InferFields(seed map[string]any) Fields {
	fields := make(Fields, len(seed))
	for key, value := range seed {
		fields[key] = InferField(value)
	}
	return fields
}

// InferField declares a single field from value, see InferFields.
func InferField(value any) Field {
	if value == nil {
		return PaginatedList()
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Scalar(value)
	case reflect.Slice, reflect.Array:
		items, _ := asItems(value)
		if items == nil {
			items = []any{}
		}
		return Field{Kind: FieldList, Seed: items}
	default:
		return PaginatedList(value)
	}
}

// DefaultsPolicy selects which list fields receive the built-in envelope and
// reducers.
type DefaultsPolicy struct {
	all  bool
	keys map[string]struct{}
}

// AllDefaults keeps the built-in reducers for every list field.
func AllDefaults() DefaultsPolicy {
	return DefaultsPolicy{}
}

// NoDefaults disables the built-in envelope and reducers for the whole slice.
func NoDefaults() DefaultsPolicy {
	return DefaultsPolicy{all: true}
}

// NoDefaultsFor disables the built-in envelope and reducers for the listed
// base keys only.
func NoDefaultsFor(keys ...string) DefaultsPolicy {
	if len(keys) == 0 {
		return DefaultsPolicy{}
	}
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return DefaultsPolicy{keys: set}
}

// Disabled reports whether defaults are off for key.
func (p DefaultsPolicy) Disabled(key string) bool {
	if p.all {
		return true
	}
	_, ok := p.keys[key]
	return ok
}

// AllDisabled reports whether defaults are off for the whole slice.
func (p DefaultsPolicy) AllDisabled() bool {
	return p.all
}

// Keys returns the opted-out keys of a list-form policy, sorted.
func (p DefaultsPolicy) Keys() []string {
	keys := make([]string, 0, len(p.keys))
	for key := range p.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
