package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-slicekit"
	"github.com/goliatone/go-slicekit/internal/hydrate"
	"github.com/goliatone/go-slicekit/pkg/activity"
	"github.com/google/uuid"
)

// Hydrator loads stored snapshots into hydrate actions and persists slice
// states back to a Store.
type Hydrator struct {
	Store Store
	// ActionType overrides slicekit.HydrateActionType for slices configured
	// with WithHydrateType.
	ActionType string
	Hooks      activity.Hooks
	// Logger receives hook failures. Persist and Hydrate never fail because
	// of a hook.
	Logger  slicekit.DiagnosticLogger
	ActorID string
	Now     func() time.Time
}

// Hydrate loads every ref and merges them into one hydrate action. Later refs
// override keys of earlier refs for the same slice; missing snapshots are
// skipped.
func (h Hydrator) Hydrate(ctx context.Context, refs ...Ref) (slicekit.Action, error) {
	if h.Store == nil {
		return slicekit.Action{}, fmt.Errorf("snapshot: store is required")
	}
	if len(refs) == 0 {
		return slicekit.Action{}, fmt.Errorf("snapshot: at least one ref is required")
	}

	root := slicekit.RootState{}
	for _, ref := range refs {
		state, meta, ok, err := h.Store.Load(ctx, ref)
		if err != nil {
			return slicekit.Action{}, fmt.Errorf("snapshot: load %q for scope %q: %w", ref.Slice, ref.scopeLabel(), err)
		}
		if !ok {
			continue
		}
		merged, exists := root[ref.Slice]
		if !exists {
			merged = slicekit.State{}
		}
		for key, value := range state {
			merged[key] = value
		}
		root[ref.Slice] = merged
		h.notify(ctx, activity.BuildSnapshotLoadedEvent(h.snapshotInput(ref, meta)))
	}

	return h.action(root), nil
}

// Persist saves state for ref. When meta.ETag is set it must match the stored
// ETag. Each save gets a fresh ETag, and a SnapshotID and UpdatedAt when the
// caller leaves them empty.
func (h Hydrator) Persist(ctx context.Context, ref Ref, state slicekit.State, meta Meta) (Meta, error) {
	if h.Store == nil {
		return Meta{}, fmt.Errorf("snapshot: store is required")
	}
	if ref.Slice == "" {
		return Meta{}, fmt.Errorf("snapshot: slice is required")
	}

	_, loaded, ok, err := h.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("snapshot: load %q for scope %q: %w", ref.Slice, ref.scopeLabel(), err)
	}
	if !ok {
		loaded = Meta{}
	}
	if meta.ETag != "" && loaded.ETag != "" && meta.ETag != loaded.ETag {
		return loaded, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loaded.ETag)
	}

	save := mergeMeta(loaded, meta)
	save.ETag = uuid.NewString()
	if meta.SnapshotID == "" {
		save.SnapshotID = uuid.NewString()
	}
	if meta.UpdatedAt.IsZero() {
		save.UpdatedAt = h.now()
	}

	saved, err := h.Store.Save(ctx, ref, state, save)
	if err != nil {
		return loaded, fmt.Errorf("snapshot: save %q for scope %q: %w", ref.Slice, ref.scopeLabel(), err)
	}
	h.notify(ctx, activity.BuildSnapshotSavedEvent(h.snapshotInput(ref, saved)))
	return saved, nil
}

// PersistFrom saves the entry for ref.Slice found in root.
func (h Hydrator) PersistFrom(ctx context.Context, ref Ref, root slicekit.RootState, meta Meta) (Meta, error) {
	state, ok := root[ref.Slice]
	if !ok {
		return Meta{}, fmt.Errorf("snapshot: root state has no slice %q", ref.Slice)
	}
	return h.Persist(ctx, ref, state, meta)
}

// DecodeJSON turns a raw JSON snapshot keyed by slice name into a hydrate
// action, restoring ListState envelopes for the list fields of slices.
func (h Hydrator) DecodeJSON(data []byte, slices ...*slicekit.Slice) (slicekit.Action, error) {
	root, err := hydrate.NewDecoder(hydrate.WithSlices(slices...)).DecodeBytes(hydrate.Context{Source: "json"}, data)
	if err != nil {
		return slicekit.Action{}, err
	}
	return h.action(root), nil
}

// DecodeJSON is Hydrator{}.DecodeJSON.
func DecodeJSON(data []byte, slices ...*slicekit.Slice) (slicekit.Action, error) {
	return Hydrator{}.DecodeJSON(data, slices...)
}

func (h Hydrator) action(root slicekit.RootState) slicekit.Action {
	action := slicekit.HydrateAction(root)
	if h.ActionType != "" {
		action.Type = h.ActionType
	}
	return action
}

func (h Hydrator) snapshotInput(ref Ref, meta Meta) activity.SnapshotInput {
	return activity.SnapshotInput{
		ActorID:    h.ActorID,
		Slice:      ref.Slice,
		Scope:      ref.scopeLabel(),
		SnapshotID: meta.SnapshotID,
	}
}

func (h Hydrator) notify(ctx context.Context, event activity.Event) {
	if !h.Hooks.Enabled() {
		return
	}
	if err := h.Hooks.Notify(ctx, event); err != nil && h.Logger != nil {
		h.Logger.LogDiagnostic(slicekit.Diagnostic{
			Kind:    slicekit.DiagnosticActivity,
			Slice:   event.Slice,
			Action:  event.Verb,
			Key:     event.ObjectID,
			Message: "snapshot activity hooks failed",
			Err:     err,
		})
	}
}

func (h Hydrator) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
