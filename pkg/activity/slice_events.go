package activity

import (
	"strings"
	"time"
)

// TransitionInput describes a reduced action that changed slice state.
type TransitionInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Slice      string
	Key        string
	Kind       string
	Action     string
	RequestID  string
	Channel    string
	Metadata   map[string]any
	OldValue   any
	NewValue   any
	OccurredAt time.Time
}

// SnapshotInput describes a persisted or loaded slice snapshot.
type SnapshotInput struct {
	ActorID    string
	Slice      string
	Scope      string
	SnapshotID string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildTransitionEvent constructs an event with verb "slice.<kind>". The
// object is the namespaced field, or the slice itself for slice-wide
// transitions such as hydrate.
func BuildTransitionEvent(input TransitionInput) Event {
	kind := strings.TrimSpace(input.Kind)
	if kind == "" {
		kind = "transition"
	}
	objectType, objectID := "slice.field", strings.TrimSpace(input.Key)
	if objectID == "" {
		objectType, objectID = "slice", strings.TrimSpace(input.Slice)
	}

	metadata := cloneMap(input.Metadata)
	if input.Action != "" {
		metadata = ensureMetadata(metadata)
		metadata["action"] = input.Action
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	return Event{
		Verb:       "slice." + kind,
		ActorID:    input.ActorID,
		UserID:     input.UserID,
		TenantID:   input.TenantID,
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    input.Channel,
		Slice:      input.Slice,
		RequestID:  input.RequestID,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// BuildSnapshotSavedEvent constructs the "slice.snapshot.saved" event.
func BuildSnapshotSavedEvent(input SnapshotInput) Event {
	return buildSnapshotEvent("slice.snapshot.saved", input)
}

// BuildSnapshotLoadedEvent constructs the "slice.snapshot.loaded" event.
func BuildSnapshotLoadedEvent(input SnapshotInput) Event {
	return buildSnapshotEvent("slice.snapshot.loaded", input)
}

func buildSnapshotEvent(verb string, input SnapshotInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Scope != "" {
		metadata = ensureMetadata(metadata)
		metadata["scope"] = input.Scope
	}

	objectID := strings.TrimSpace(input.SnapshotID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Slice)
	}
	if objectID == "" {
		objectID = "slice.snapshot"
	}

	return Event{
		Verb:       verb,
		ActorID:    input.ActorID,
		ObjectType: "slice.snapshot",
		ObjectID:   objectID,
		Channel:    input.Channel,
		Slice:      input.Slice,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
