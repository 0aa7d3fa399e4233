package slicekit

import "fmt"

// FieldDescriptor describes one declared field of a slice.
type FieldDescriptor struct {
	Key        string `json:"key"`
	Namespaced string `json:"namespaced"`
	Kind       string `json:"kind"`
	Type       string `json:"type"`
	Defaults   bool   `json:"defaults"`
}

// Schema describes the slice fields in declaration order (sorted keys).
// List fields carrying the envelope report Type "ListState"; opted-out list
// fields report the element type of their seed.
func (s *Slice) Schema() []FieldDescriptor {
	keys := s.keys.Keys()
	descriptors := make([]FieldDescriptor, 0, len(keys))
	for _, key := range keys {
		field := s.fields[key]
		_, defaults := s.lists[key]
		descriptor := FieldDescriptor{
			Key:        key,
			Namespaced: Namespace(s.name, key),
			Kind:       field.Kind.String(),
			Defaults:   defaults,
		}
		switch {
		case defaults:
			descriptor.Type = "ListState"
		case field.Kind == FieldList:
			descriptor.Type = "[]" + elementTypeName(field.Seed)
		default:
			descriptor.Type = typeName(field.Value)
		}
		descriptors = append(descriptors, descriptor)
	}
	return descriptors
}

func elementTypeName(items []any) string {
	if len(items) == 0 {
		return "any"
	}
	return typeName(items[0])
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
