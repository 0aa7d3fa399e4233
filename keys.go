package slicekit

import "fmt"

// KeyTable resolves base keys to namespaced keys and back. It is immutable
// once built and safe for concurrent readers.
type KeyTable struct {
	name    string
	keys    []string
	forward map[string]string
	reverse map[string]string
}

// NewKeyTable builds the table for keys under the slice name. Keys keep the
// order they were given in.
func NewKeyTable(name string, keys []string) (*KeyTable, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("slicekit: key table: %w", err)
	}
	table := &KeyTable{
		name:    name,
		keys:    make([]string, 0, len(keys)),
		forward: make(map[string]string, len(keys)),
		reverse: make(map[string]string, len(keys)),
	}
	for _, key := range keys {
		if err := ValidateKey(key); err != nil {
			return nil, fmt.Errorf("slicekit: key table %q: %w", name, err)
		}
		if _, exists := table.forward[key]; exists {
			return nil, fmt.Errorf("slicekit: key table %q: %w: duplicate key %q", name, ErrKeyCollision, key)
		}
		namespaced := Namespace(name, key)
		table.keys = append(table.keys, key)
		table.forward[key] = namespaced
		table.reverse[namespaced] = key
	}
	return table, nil
}

// Name returns the slice name the table was built for.
func (t *KeyTable) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Keys returns the base keys in declaration order.
func (t *KeyTable) Keys() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.keys...)
}

// Len counts entries in both directions.
func (t *KeyTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.forward) + len(t.reverse)
}

// Lookup resolves key in either direction: a base key yields its namespaced
// key and a namespaced key yields its base key.
func (t *KeyTable) Lookup(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	if namespaced, ok := t.forward[key]; ok {
		return namespaced, true
	}
	base, ok := t.reverse[key]
	return base, ok
}

// Namespaced returns the namespaced key for a base or namespaced key.
func (t *KeyTable) Namespaced(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	if namespaced, ok := t.forward[key]; ok {
		return namespaced, true
	}
	if _, ok := t.reverse[key]; ok {
		return key, true
	}
	return "", false
}

// Base returns the base key for a base or namespaced key.
func (t *KeyTable) Base(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	if _, ok := t.forward[key]; ok {
		return key, true
	}
	base, ok := t.reverse[key]
	return base, ok
}

// Entries returns a copy of the table with both directions populated.
func (t *KeyTable) Entries() map[string]string {
	if t == nil {
		return nil
	}
	out := make(map[string]string, t.Len())
	for base, namespaced := range t.forward {
		out[base] = namespaced
		out[namespaced] = base
	}
	return out
}
