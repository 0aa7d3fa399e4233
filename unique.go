package slicekit

import (
	"fmt"
	"reflect"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// identityJSON sorts map keys so structurally equal values encode the same.
var identityJSON = jsoniter.Config{
	SortMapKeys:            true,
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// IdentityKey returns the identity used to detect duplicate items. Records
// exposing an id (an "id" map entry, an ID field or a field tagged json:"id")
// are identified by it; anything else by its canonical JSON encoding.
func IdentityKey(item any) string {
	if id, ok := recordID(item); ok {
		return "id:" + encodeIdentity(id)
	}
	return "value:" + encodeIdentity(item)
}

// IsUnique reports whether no two items share an identity.
func IsUnique(items []any) bool {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := IdentityKey(item)
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

// Unique removes duplicates from items. Each identity keeps the position of
// its first occurrence and the content of its last one.
func Unique(items []any) []any {
	if items == nil {
		return nil
	}
	index := make(map[string]int, len(items))
	out := make([]any, 0, len(items))
	for _, item := range items {
		key := IdentityKey(item)
		if pos, ok := index[key]; ok {
			out[pos] = item
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}

func recordID(item any) (any, bool) {
	switch typed := item.(type) {
	case nil:
		return nil, false
	case map[string]any:
		id, ok := typed["id"]
		return id, ok && id != nil
	}

	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		value := rv.MapIndex(reflect.ValueOf("id").Convert(rv.Type().Key()))
		if !value.IsValid() || (value.Kind() == reflect.Interface && value.IsNil()) {
			return nil, false
		}
		return value.Interface(), true
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			tag := strings.Split(field.Tag.Get("json"), ",")[0]
			if field.Name == "ID" || tag == "id" {
				return rv.Field(i).Interface(), true
			}
		}
	}
	return nil, false
}

func encodeIdentity(value any) string {
	if n, ok := pageNumber(value); ok {
		// 1, int64(1) and 1.0 name the same record.
		return fmt.Sprintf("n:%v", n)
	}
	encoded, err := identityJSON.MarshalToString(value)
	if err != nil {
		return fmt.Sprintf("%T:%#v", value, value)
	}
	return encoded
}
