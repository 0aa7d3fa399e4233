package hydrate

import (
	"fmt"

	"github.com/goliatone/go-slicekit"
	jsoniter "github.com/json-iterator/go"
)

// Context carries identifiers tied to a snapshot payload.
type Context struct {
	Source string
	Scope  string
}

// PreHook lets callers mutate or normalise the raw payload before it is
// turned into slice states.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded root state.
type PostHook func(Context, slicekit.RootState) error

// KindResolver reports how a field of a slice is stored. ok is false for
// keys the resolver does not know.
type KindResolver func(slice, key string) (kind slicekit.FieldKind, ok bool)

// DecoderOption configures a Decoder instance.
type DecoderOption func(*Decoder)

// Decoder converts raw snapshot payloads into slicekit root states.
type Decoder struct {
	preHooks  []PreHook
	postHooks []PostHook
	kinds     KindResolver
	strict    bool
	useNumber bool
}

// WithPreHook applies hook prior to decoding.
func WithPreHook(hook PreHook) DecoderOption {
	return func(d *Decoder) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook(hook PostHook) DecoderOption {
	return func(d *Decoder) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithKindResolver restores ListState envelopes for keys resolved as lists.
func WithKindResolver(resolver KindResolver) DecoderOption {
	return func(d *Decoder) {
		d.kinds = resolver
	}
}

// WithSlices resolves field kinds from the given slices.
func WithSlices(slices ...*slicekit.Slice) DecoderOption {
	return WithKindResolver(ResolverFor(slices...))
}

// WithStrict rejects keys the resolver does not know instead of keeping them.
func WithStrict() DecoderOption {
	return func(d *Decoder) {
		d.strict = true
	}
}

// WithUseNumber keeps JSON numbers as json.Number while decoding bytes.
func WithUseNumber() DecoderOption {
	return func(d *Decoder) {
		d.useNumber = true
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// ResolverFor builds a KindResolver that consults each slice by name.
func ResolverFor(slices ...*slicekit.Slice) KindResolver {
	byName := make(map[string]*slicekit.Slice, len(slices))
	for _, s := range slices {
		if s != nil {
			byName[s.Name()] = s
		}
	}
	return func(slice, key string) (slicekit.FieldKind, bool) {
		s, ok := byName[slice]
		if !ok {
			return 0, false
		}
		return s.KindOf(key)
	}
}

func (d *Decoder) api() jsoniter.API {
	return jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		UseNumber:              d.useNumber,
	}.Froze()
}

// DecodeBytes parses data as a JSON object keyed by slice name and decodes it.
func (d *Decoder) DecodeBytes(ctx Context, data []byte) (slicekit.RootState, error) {
	var payload map[string]any
	if err := d.api().Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("hydrate: parse payload from %q: %w", ctx.Source, err)
	}
	return d.Decode(ctx, payload)
}

// Decode converts payload into a RootState applying configured hooks. Every
// top-level entry must be an object of field values.
func (d *Decoder) Decode(ctx Context, payload map[string]any) (slicekit.RootState, error) {
	if payload == nil {
		return nil, fmt.Errorf("hydrate: payload is nil for %q", ctx.Source)
	}

	current, err := d.clonePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("hydrate: clone payload for %q: %w", ctx.Source, err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for %q failed: %w", ctx.Source, err)
		}
		if next != nil {
			current = next
		}
	}

	root := make(slicekit.RootState, len(current))
	for name, raw := range current {
		fields, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("hydrate: slice %q in %q is %T, want object", name, ctx.Source, raw)
		}
		state, err := d.decodeSlice(name, fields)
		if err != nil {
			return nil, fmt.Errorf("hydrate: %q: %w", ctx.Source, err)
		}
		root[name] = state
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, root); err != nil {
			return nil, fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx.Source, err)
		}
	}

	return root, nil
}

func (d *Decoder) decodeSlice(name string, fields map[string]any) (slicekit.State, error) {
	state := make(slicekit.State, len(fields))
	for key, value := range fields {
		if d.kinds == nil {
			state[key] = value
			continue
		}
		kind, ok := d.kinds(name, key)
		if !ok {
			if d.strict {
				return nil, fmt.Errorf("slice %q has no field %q", name, key)
			}
			state[key] = value
			continue
		}
		if envelope, isMap := value.(map[string]any); isMap && kind == slicekit.FieldList {
			state[key] = slicekit.ListStateFromMap(envelope)
			continue
		}
		state[key] = value
	}
	return state, nil
}

// clonePayload round-trips payload so hooks never see caller owned maps and
// typed values arrive in their JSON form.
func (d *Decoder) clonePayload(payload map[string]any) (map[string]any, error) {
	api := d.api()
	buffer, err := api.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := api.Unmarshal(buffer, &out); err != nil {
		return nil, err
	}
	return out, nil
}
