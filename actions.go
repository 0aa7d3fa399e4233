package slicekit

import "github.com/google/uuid"

func newRequestID() string {
	return uuid.NewString()
}

// ActionFromMap converts the loosely typed action shape produced by host
// runtimes (type, meta.arg.originalArgs._queryType, payload.results, ...)
// into an Action. Missing or mistyped entries are left zero.
func ActionFromMap(raw map[string]any) Action {
	action := Action{}
	action.Type, _ = raw["type"].(string)
	action.Error = raw["error"]

	if meta, ok := raw["meta"].(map[string]any); ok {
		action.Meta.RequestID, _ = meta["requestId"].(string)
		if arg, ok := meta["arg"].(map[string]any); ok {
			action.Meta.Arg = arg
			if original, ok := arg["originalArgs"].(map[string]any); ok {
				action.Meta.QueryType, _ = original["_queryType"].(string)
			}
		}
	}

	payload, ok := raw["payload"].(map[string]any)
	if !ok {
		if raw["payload"] != nil {
			action.Payload.Value = raw["payload"]
		}
		return action
	}
	action.Payload.Results = payload["results"]
	action.Payload.Page = payload["page"]
	action.Payload.Errors = payload["errors"]
	if loading, ok := payload["isLoading"].(bool); ok {
		action.Payload.IsLoading = &loading
	}
	action.Payload.Value = payload
	if !carriesSnapshot(action.Type, payload) {
		return action
	}
	if snapshot := rootStateFromMap(payload); len(snapshot) > 0 {
		action.Payload.Snapshot = snapshot
	}
	return action
}

// carriesSnapshot reports whether payload should be read as slice states
// keyed by slice name: always for the default hydrate type, otherwise only
// when no list payload entry is present.
func carriesSnapshot(actionType string, payload map[string]any) bool {
	if actionType == HydrateActionType {
		return true
	}
	for _, key := range []string{"results", "page", "errors", "isLoading"} {
		if _, ok := payload[key]; ok {
			return false
		}
	}
	return true
}

// ListStateFromMap rebuilds a ListState from its map form. Unknown entries
// are ignored and missing ones take the initial envelope values.
func ListStateFromMap(raw map[string]any) ListState {
	list := NewListState(nil)
	if results, ok := asItems(raw["results"]); ok {
		list.Results = results
	}
	if loading, ok := raw["isLoading"].(bool); ok {
		list.IsLoading = loading
	}
	if hasMore, ok := raw["hasMore"].(bool); ok {
		list.HasMore = hasMore
	}
	if page, ok := raw["page"]; ok {
		list.Page = page
	}
	list.Errors = raw["errors"]
	return list
}

func rootStateFromMap(raw map[string]any) RootState {
	root := RootState{}
	for name, value := range raw {
		fields, ok := value.(map[string]any)
		if !ok {
			continue
		}
		root[name] = State(fields)
	}
	return root
}
