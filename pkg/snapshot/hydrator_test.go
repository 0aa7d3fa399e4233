package snapshot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-slicekit"
	"github.com/goliatone/go-slicekit/pkg/activity"
	"github.com/goliatone/go-slicekit/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsersSlice(t *testing.T, opts ...slicekit.Option) *slicekit.Slice {
	t.Helper()
	opts = append([]slicekit.Option{slicekit.WithHydrate(true)}, opts...)
	s, err := slicekit.New("users", slicekit.Fields{
		"list":  slicekit.PaginatedList(),
		"title": slicekit.Scalar("Users"),
	}, opts...)
	require.NoError(t, err)
	return s
}

func TestHydratorPersistThenHydrate(t *testing.T) {
	ctx := context.Background()
	capture := &activity.CaptureHook{}
	fixed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	h := snapshot.Hydrator{Store: snapshot.NewMemoryStore(), Hooks: activity.Hooks{capture}, Now: func() time.Time { return fixed }}
	slice := newUsersSlice(t)

	state := slice.Reduce(nil, slice.SetPageData("list", slicekit.Payload{Results: []any{"a", "b"}, Page: 1}))
	ref := snapshot.Ref{Slice: "users", Scope: snapshot.ScopeSession, ID: "s1"}

	meta, err := h.Persist(ctx, ref, state, snapshot.Meta{})
	require.NoError(t, err)
	assert.NotEmpty(t, meta.SnapshotID)
	assert.NotEmpty(t, meta.ETag)
	assert.True(t, meta.UpdatedAt.Equal(fixed))

	action, err := h.Hydrate(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, slicekit.HydrateActionType, action.Type)

	hydrated := slice.Reduce(slice.InitialState(), action)
	list, ok := slice.SelectList(slicekit.RootState{"users": hydrated}, "list")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, list.Results)

	events := capture.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "slice.snapshot.saved", events[0].Verb)
	assert.Equal(t, "slice.snapshot.loaded", events[1].Verb)
	assert.Equal(t, meta.SnapshotID, events[1].ObjectID)
}

func TestHydratorLaterRefsOverrideEarlier(t *testing.T) {
	ctx := context.Background()
	h := snapshot.Hydrator{Store: snapshot.NewMemoryStore()}
	global := snapshot.Ref{Slice: "users"}
	user := snapshot.Ref{Slice: "users", Scope: snapshot.ScopeUser, ID: "u1"}

	_, err := h.Persist(ctx, global, slicekit.State{"users/title": "Global", "users/list": []any{"g"}}, snapshot.Meta{})
	require.NoError(t, err)
	_, err = h.Persist(ctx, user, slicekit.State{"users/title": "Mine"}, snapshot.Meta{})
	require.NoError(t, err)

	action, err := h.Hydrate(ctx, global, user, snapshot.Ref{Slice: "users", Scope: snapshot.ScopeTenant, ID: "missing"})
	require.NoError(t, err)
	merged := action.Payload.Snapshot["users"]
	assert.Equal(t, "Mine", merged["users/title"])
	assert.Equal(t, []any{"g"}, merged["users/list"])
}

func TestHydratorPersistETagMismatch(t *testing.T) {
	ctx := context.Background()
	h := snapshot.Hydrator{Store: snapshot.NewMemoryStore()}
	ref := snapshot.Ref{Slice: "users"}

	first, err := h.Persist(ctx, ref, slicekit.State{"users/title": "a"}, snapshot.Meta{})
	require.NoError(t, err)

	second, err := h.Persist(ctx, ref, slicekit.State{"users/title": "b"}, snapshot.Meta{ETag: first.ETag})
	require.NoError(t, err)
	assert.NotEqual(t, first.ETag, second.ETag)

	_, err = h.Persist(ctx, ref, slicekit.State{"users/title": "c"}, snapshot.Meta{ETag: first.ETag})
	require.ErrorIs(t, err, snapshot.ErrETagMismatch)
}

func TestHydratorCustomActionType(t *testing.T) {
	ctx := context.Background()
	h := snapshot.Hydrator{Store: snapshot.NewMemoryStore(), ActionType: "app/hydrate"}
	slice := newUsersSlice(t, slicekit.WithHydrateType("app/hydrate"))
	ref := snapshot.Ref{Slice: "users"}

	_, err := h.Persist(ctx, ref, slicekit.State{"users/title": "Restored"}, snapshot.Meta{})
	require.NoError(t, err)
	action, err := h.Hydrate(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "app/hydrate", action.Type)

	state := slice.Reduce(nil, action)
	assert.Equal(t, "Restored", state["users/title"])
}

func TestHydratorPersistFrom(t *testing.T) {
	ctx := context.Background()
	h := snapshot.Hydrator{Store: snapshot.NewMemoryStore()}

	_, err := h.PersistFrom(ctx, snapshot.Ref{Slice: "posts"}, slicekit.RootState{}, snapshot.Meta{})
	require.Error(t, err)

	_, err = h.PersistFrom(ctx, snapshot.Ref{Slice: "users"}, slicekit.RootState{"users": {"users/title": "x"}}, snapshot.Meta{SnapshotID: "fixed"})
	require.NoError(t, err)
	action, err := h.Hydrate(ctx, snapshot.Ref{Slice: "users"})
	require.NoError(t, err)
	assert.Equal(t, "x", action.Payload.Snapshot["users"]["users/title"])
}

type failingStore struct{ err error }

func (f failingStore) Load(context.Context, snapshot.Ref) (slicekit.State, snapshot.Meta, bool, error) {
	return nil, snapshot.Meta{}, false, f.err
}

func (f failingStore) Save(context.Context, snapshot.Ref, slicekit.State, snapshot.Meta) (snapshot.Meta, error) {
	return snapshot.Meta{}, f.err
}

func TestHydratorErrors(t *testing.T) {
	ctx := context.Background()

	_, err := snapshot.Hydrator{}.Hydrate(ctx, snapshot.Ref{Slice: "users"})
	require.Error(t, err)

	_, err = snapshot.Hydrator{Store: snapshot.NewMemoryStore()}.Hydrate(ctx)
	require.Error(t, err)

	boom := errors.New("store down")
	_, err = snapshot.Hydrator{Store: failingStore{err: boom}}.Hydrate(ctx, snapshot.Ref{Slice: "users"})
	require.ErrorIs(t, err, boom)

	_, err = snapshot.Hydrator{Store: failingStore{err: boom}}.Persist(ctx, snapshot.Ref{Slice: "users"}, slicekit.State{}, snapshot.Meta{})
	require.ErrorIs(t, err, boom)
}

func TestHydratorLogsHookFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("sink down")
	var logged []slicekit.Diagnostic
	h := snapshot.Hydrator{
		Store: snapshot.NewMemoryStore(),
		Hooks: activity.Hooks{activity.HookFunc(func(context.Context, activity.Event) error {
			return boom
		})},
		Logger: slicekit.DiagnosticLoggerFunc(func(d slicekit.Diagnostic) {
			logged = append(logged, d)
		}),
	}
	ref := snapshot.Ref{Slice: "users"}

	_, err := h.Persist(ctx, ref, slicekit.State{"users/title": "Saved"}, snapshot.Meta{})
	require.NoError(t, err, "hook failures do not fail the save")
	_, err = h.Hydrate(ctx, ref)
	require.NoError(t, err, "hook failures do not fail the load")

	require.Len(t, logged, 2)
	for _, d := range logged {
		assert.Equal(t, slicekit.DiagnosticActivity, d.Kind)
		assert.Equal(t, "users", d.Slice)
		assert.ErrorIs(t, d.Err, boom)
	}
	assert.NotEqual(t, logged[0].Action, logged[1].Action)
}

func TestDecodeJSONRestoresListEnvelope(t *testing.T) {
	slice := newUsersSlice(t)
	action, err := snapshot.DecodeJSON([]byte(`{"users":{"users/list":{"results":[1,2],"hasMore":false,"page":2},"users/title":"Remote"}}`), slice)
	require.NoError(t, err)

	state := slice.Reduce(nil, action)
	assert.Equal(t, "Remote", state["users/title"])
	list, ok := state["users/list"].(slicekit.ListState)
	require.True(t, ok)
	assert.Len(t, list.Results, 2)
	assert.False(t, list.HasMore)
}
