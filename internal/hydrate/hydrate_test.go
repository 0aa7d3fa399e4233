package hydrate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-slicekit"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureFile struct {
	Cases []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name      string         `json:"name"`
	Source    string         `json:"source"`
	Strict    bool           `json:"strict"`
	PreHooks  []string       `json:"preHooks"`
	Input     map[string]any `json:"input"`
	Expect    map[string]any `json:"expect"`
	ExpectErr string         `json:"expectErr"`
}

func usersSlice(t *testing.T) *slicekit.Slice {
	t.Helper()
	s, err := slicekit.New("users", slicekit.Fields{
		"list":  slicekit.PaginatedList(),
		"title": slicekit.Scalar(""),
	})
	require.NoError(t, err)
	return s
}

func TestDecoderFromFixtures(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "hydrate_snapshots.json"))
	require.NoError(t, err)
	var fx fixtureFile
	require.NoError(t, jsoniter.Unmarshal(data, &fx))
	require.NotEmpty(t, fx.Cases)

	slice := usersSlice(t)

	for _, tc := range fx.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			options := []DecoderOption{WithSlices(slice)}
			if tc.Strict {
				options = append(options, WithStrict())
			}
			for _, hook := range tc.PreHooks {
				if hook == "namespace" {
					options = append(options, WithPreHook(namespacePreHook))
				}
			}

			root, err := NewDecoder(options...).Decode(Context{Source: tc.Source}, tc.Input)
			if tc.ExpectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.ExpectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, normalize(t, tc.Expect), normalize(t, root))
		})
	}
}

func TestDecodeBytesRestoresListState(t *testing.T) {
	decoder := NewDecoder(WithSlices(usersSlice(t)))
	root, err := decoder.DecodeBytes(Context{Source: "inline"}, []byte(`{"users":{"users/list":{"results":["a","b"],"hasMore":false,"page":"tok"}}}`))
	require.NoError(t, err)

	list, ok := root["users"]["users/list"].(slicekit.ListState)
	require.True(t, ok, "expected ListState, got %T", root["users"]["users/list"])
	assert.Equal(t, []any{"a", "b"}, list.Results)
	assert.False(t, list.HasMore)
	assert.Equal(t, "tok", list.Page)
}

func TestDecodeBytesRejectsInvalidJSON(t *testing.T) {
	_, err := NewDecoder().DecodeBytes(Context{Source: "broken"}, []byte(`{"users":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"broken"`)
}

func TestDecoderWithoutResolverKeepsRawValues(t *testing.T) {
	root, err := NewDecoder().Decode(Context{}, map[string]any{
		"users": map[string]any{"users/list": map[string]any{"results": []any{}}},
	})
	require.NoError(t, err)
	_, isMap := root["users"]["users/list"].(map[string]any)
	assert.True(t, isMap)
}

func TestDecoderDoesNotMutateInput(t *testing.T) {
	input := map[string]any{"users": map[string]any{"title": "Users"}}
	_, err := NewDecoder(WithPreHook(namespacePreHook)).Decode(Context{}, input)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Users"}, input["users"])
}

func TestDecoderHookErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewDecoder(WithPreHook(func(Context, map[string]any) (map[string]any, error) {
		return nil, boom
	})).Decode(Context{Source: "pre"}, map[string]any{})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "pre-hook")

	_, err = NewDecoder(WithPostHook(func(Context, slicekit.RootState) error {
		return boom
	})).Decode(Context{Source: "post"}, map[string]any{})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "post-hook")
}

func TestDecoderRejectsNilPayload(t *testing.T) {
	_, err := NewDecoder().Decode(Context{Source: "nil"}, nil)
	require.Error(t, err)
}

func namespacePreHook(_ Context, payload map[string]any) (map[string]any, error) {
	for name, raw := range payload {
		fields, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		prefixed := make(map[string]any, len(fields))
		for key, value := range fields {
			if !strings.Contains(key, slicekit.KeySeparator) {
				key = slicekit.Namespace(name, key)
			}
			prefixed[key] = value
		}
		payload[name] = prefixed
	}
	return payload, nil
}

// normalize renders values through JSON so ListState and map forms compare.
func normalize(t *testing.T, value any) any {
	t.Helper()
	data, err := jsoniter.Marshal(value)
	require.NoError(t, err)
	var out any
	require.NoError(t, jsoniter.Unmarshal(data, &out))
	return out
}
