package snapshot_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-slicekit"
	"github.com/goliatone/go-slicekit/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTripIsolatesState(t *testing.T) {
	store := snapshot.NewMemoryStore()
	ctx := context.Background()
	ref := snapshot.Ref{Slice: "users", Scope: snapshot.ScopeUser, ID: "u1"}

	state := slicekit.State{
		"users/title": "Users",
		"users/tags":  []any{"a"},
	}
	meta := snapshot.Meta{SnapshotID: "snap-1", Extra: map[string]string{"k": "v"}}
	_, err := store.Save(ctx, ref, state, meta)
	require.NoError(t, err)

	state["users/title"] = "changed"
	state["users/tags"].([]any)[0] = "changed"
	meta.Extra["k"] = "changed"

	loaded, loadedMeta, ok, err := store.Load(ctx, ref)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Users", loaded["users/title"])
	assert.Equal(t, []any{"a"}, loaded["users/tags"])
	assert.Equal(t, "snap-1", loadedMeta.SnapshotID)
	assert.Equal(t, "v", loadedMeta.Extra["k"])
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreMissingRef(t *testing.T) {
	store := snapshot.NewMemoryStore()
	_, _, ok, err := store.Load(context.Background(), snapshot.Ref{Slice: "users"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRejectsInvalidRef(t *testing.T) {
	store := snapshot.NewMemoryStore()
	_, err := store.Save(context.Background(), snapshot.Ref{Slice: "users", Scope: "team"}, slicekit.State{}, snapshot.Meta{})
	require.Error(t, err)
	_, _, _, err = store.Load(context.Background(), snapshot.Ref{})
	require.Error(t, err)
}
