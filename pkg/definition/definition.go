// Package definition declares slices in YAML.
//
//	name: users
//	shouldUseHydrate: true
//	ignoreDefaultReducers: [drafts]
//	fields:
//	  title: Users
//	  list: {kind: list, value: []}
//	  drafts: {kind: list}
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-slicekit"
	"gopkg.in/yaml.v3"
)

// Field kinds accepted under fields.<key>.kind.
const (
	KindScalar = "scalar"
	KindList   = "list"
)

// Definition is the YAML form of a slice.
type Definition struct {
	Name                  string               `yaml:"name"`
	Debug                 bool                 `yaml:"debug"`
	ShouldUseHydrate      bool                 `yaml:"shouldUseHydrate"`
	Hydrate               string               `yaml:"HYDRATE"`
	IgnoreDefaultReducers IgnoreDefaults       `yaml:"ignoreDefaultReducers"`
	Fields                map[string]FieldSpec `yaml:"fields"`
	Derived               map[string]string    `yaml:"derived"`
}

// IgnoreDefaults accepts either a boolean or a list of field keys.
type IgnoreDefaults struct {
	All  bool
	Keys []string
}

// UnmarshalYAML decodes `true`, `false` or a sequence of keys.
func (i *IgnoreDefaults) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var all bool
		if err := node.Decode(&all); err != nil {
			return fmt.Errorf("definition: ignoreDefaultReducers must be a bool or a list: %w", err)
		}
		*i = IgnoreDefaults{All: all}
		return nil
	case yaml.SequenceNode:
		var keys []string
		if err := node.Decode(&keys); err != nil {
			return fmt.Errorf("definition: ignoreDefaultReducers list: %w", err)
		}
		*i = IgnoreDefaults{Keys: keys}
		return nil
	default:
		return fmt.Errorf("definition: ignoreDefaultReducers must be a bool or a list, line %d", node.Line)
	}
}

// Policy converts the YAML form into a DefaultsPolicy.
func (i IgnoreDefaults) Policy() slicekit.DefaultsPolicy {
	if i.All {
		return slicekit.NoDefaults()
	}
	if len(i.Keys) > 0 {
		return slicekit.NoDefaultsFor(i.Keys...)
	}
	return slicekit.AllDefaults()
}

// FieldSpec is one declared field: either {kind, value} or a bare value whose
// kind is inferred.
type FieldSpec struct {
	Kind  string
	Value any
}

// UnmarshalYAML decodes a {kind, value} mapping or a bare value.
func (f *FieldSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode && hasKey(node, "kind") {
		var explicit struct {
			Kind  string `yaml:"kind"`
			Value any    `yaml:"value"`
		}
		if err := node.Decode(&explicit); err != nil {
			return err
		}
		if explicit.Kind != KindScalar && explicit.Kind != KindList {
			return fmt.Errorf("definition: unknown field kind %q, line %d", explicit.Kind, node.Line)
		}
		*f = FieldSpec{Kind: explicit.Kind, Value: explicit.Value}
		return nil
	}
	var value any
	if err := node.Decode(&value); err != nil {
		return err
	}
	*f = FieldSpec{Value: value}
	return nil
}

func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// Field converts the declaration into a slicekit.Field.
func (f FieldSpec) Field() (slicekit.Field, error) {
	switch f.Kind {
	case KindScalar:
		return slicekit.Scalar(f.Value), nil
	case KindList:
		if f.Value == nil {
			return slicekit.PaginatedList(), nil
		}
		items, ok := f.Value.([]any)
		if !ok {
			return slicekit.Field{}, fmt.Errorf("definition: list value must be a sequence, got %T", f.Value)
		}
		return slicekit.PaginatedList(items...), nil
	default:
		return slicekit.InferField(f.Value), nil
	}
}

// Parse decodes a single YAML definition.
func Parse(data []byte) (Definition, error) {
	return Load(bytes.NewReader(data))
}

// Load decodes a single YAML definition from r.
func Load(r io.Reader) (Definition, error) {
	var def Definition
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, fmt.Errorf("definition: empty document")
		}
		return Definition{}, fmt.Errorf("definition: decode: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadAll decodes every YAML document in r.
func LoadAll(r io.Reader) ([]Definition, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var defs []Definition
	for {
		var def Definition
		err := decoder.Decode(&def)
		if errors.Is(err, io.EOF) {
			return defs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("definition: decode document %d: %w", len(defs)+1, err)
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
}

// Validate checks the name and the field keys.
func (d Definition) Validate() error {
	if err := slicekit.ValidateName(d.Name); err != nil {
		return fmt.Errorf("definition: %w", err)
	}
	for key := range d.Fields {
		if err := slicekit.ValidateKey(key); err != nil {
			return fmt.Errorf("definition: slice %q: %w", d.Name, err)
		}
	}
	return nil
}

// Options returns the slicekit options described by d.
func (d Definition) Options() []slicekit.Option {
	opts := []slicekit.Option{
		slicekit.WithDebug(d.Debug),
		slicekit.WithHydrate(d.ShouldUseHydrate),
		slicekit.WithDefaults(d.IgnoreDefaultReducers.Policy()),
	}
	if d.Hydrate != "" {
		opts = append(opts, slicekit.WithHydrateType(d.Hydrate))
	}
	for name, expression := range d.Derived {
		opts = append(opts, slicekit.WithDerived(name, expression))
	}
	return opts
}

// Build constructs the slice. opts are applied after the definition's own
// options so callers can override them.
func (d Definition) Build(opts ...slicekit.Option) (*slicekit.Slice, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	fields := make(slicekit.Fields, len(d.Fields))
	for key, decl := range d.Fields {
		field, err := decl.Field()
		if err != nil {
			return nil, fmt.Errorf("definition: slice %q field %q: %w", d.Name, key, err)
		}
		fields[key] = field
	}
	return slicekit.New(d.Name, fields, append(d.Options(), opts...)...)
}
