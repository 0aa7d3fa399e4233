package slicekit

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-slicekit/pkg/activity"
)

type captureLogger struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

func (c *captureLogger) LogDiagnostic(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = append(c.diagnostics, d)
}

func (c *captureLogger) kinds() []DiagnosticKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DiagnosticKind, 0, len(c.diagnostics))
	for _, d := range c.diagnostics {
		out = append(out, d.Kind)
	}
	return out
}

func (c *captureLogger) has(kind DiagnosticKind) bool {
	for _, k := range c.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

type countingRecorder struct {
	calls []string
}

func (r *countingRecorder) RecordAction(slice, kind, outcome string) {
	r.calls = append(r.calls, slice+":"+kind+":"+outcome)
}

func newUsers(t *testing.T, opts ...Option) *Slice {
	t.Helper()
	s, err := New("users", Fields{
		"list":   PaginatedList(),
		"drafts": PaginatedList("d1"),
		"count":  Scalar(0),
	}, opts...)
	if err != nil {
		t.Fatalf("new slice: %v", err)
	}
	return s
}

func fulfilled(queryType string, results ...any) Action {
	return LifecycleAction("api/executeQuery", PhaseFulfilled, queryType, Payload{Results: results})
}

func TestNewRejectsBadDeclarations(t *testing.T) {
	if _, err := New("", Fields{"a": Scalar(1)}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if _, err := New("s", Fields{"a": {}}); err == nil || !strings.Contains(err.Error(), "no kind") {
		t.Fatalf("expected kind error, got %v", err)
	}
	reserved := WithReducer(SetPageDataReducer, func(s State, _ Action) State { return s })
	if _, err := New("s", Fields{"a": Scalar(1)}, reserved); err == nil || !strings.Contains(err.Error(), "reserved") {
		t.Fatalf("expected reserved reducer error, got %v", err)
	}
}

func TestSliceAccessors(t *testing.T) {
	s := newUsers(t)
	if s.Name() != "users" {
		t.Fatalf("unexpected name %q", s.Name())
	}
	if got := s.Keys().Keys(); !reflect.DeepEqual(got, []string{"count", "drafts", "list"}) {
		t.Fatalf("unexpected keys %v", got)
	}
	if kind, ok := s.KindOf("users/list"); !ok || kind != FieldList {
		t.Fatalf("expected list kind, got %v %v", kind, ok)
	}
	if kind, ok := s.KindOf("count"); !ok || kind != FieldScalar {
		t.Fatalf("expected scalar kind, got %v %v", kind, ok)
	}
	if _, ok := s.KindOf("missing"); ok {
		t.Fatalf("expected unknown key")
	}
	fields := s.Fields()
	fields["list"] = Scalar("mutated")
	if s.Fields()["list"].Kind != FieldList {
		t.Fatalf("Fields must return a copy")
	}
	if s.ActionType("reset") != "users/reset" {
		t.Fatalf("unexpected action type %q", s.ActionType("reset"))
	}
}

func TestReduceLifecycleSequence(t *testing.T) {
	s := newUsers(t)
	state := s.InitialState()

	state = s.Reduce(state, LifecycleAction("api/executeQuery", PhasePending, "users/list", Payload{}))
	if list := state["users/list"].(ListState); !list.IsLoading {
		t.Fatalf("pending should set loading")
	}

	state = s.Reduce(state, fulfilled("users/list", record(1), record(2)))
	list := state["users/list"].(ListState)
	if list.IsLoading || !reflect.DeepEqual(list.Results, []any{record(1), record(2)}) {
		t.Fatalf("unexpected fulfilled state %#v", list)
	}

	rejected := LifecycleAction("api/executeQuery", PhaseRejected, "list", Payload{})
	rejected.Error = "network"
	state = s.Reduce(state, rejected)
	list = state["users/list"].(ListState)
	if list.Errors != "network" || list.IsLoading {
		t.Fatalf("unexpected rejected state %#v", list)
	}

	fallback := LifecycleAction("api/executeQuery", PhaseRejected, "list", Payload{Errors: "from payload"})
	state = s.Reduce(state, fallback)
	if got := state["users/list"].(ListState).Errors; got != "from payload" {
		t.Fatalf("expected payload errors fallback, got %#v", got)
	}
}

func TestReduceInvalidQueryTypeLeavesStateUnchanged(t *testing.T) {
	logger := &captureLogger{}
	recorder := &countingRecorder{}
	s := newUsers(t, WithLogger(logger), WithRecorder(recorder))
	state := s.InitialState()

	for _, queryType := range []string{"users/missing", "posts/list", "", "count"} {
		next := s.Reduce(state, fulfilled(queryType, record(9)))
		if !reflect.DeepEqual(next, state) {
			t.Fatalf("query type %q changed state: %#v", queryType, next)
		}
	}
	if !logger.has(DiagnosticInvalidKey) {
		t.Fatalf("expected invalid_key diagnostics, got %v", logger.kinds())
	}
	for _, call := range recorder.calls {
		if !strings.HasSuffix(call, OutcomeInvalidKey) {
			t.Fatalf("expected only invalid_key outcomes, got %v", recorder.calls)
		}
	}
}

func TestReduceIsPure(t *testing.T) {
	s := newUsers(t)
	state := s.Reduce(nil, fulfilled("list", record(1)))
	before := state["users/list"].(ListState)
	snapshot := before.clone()

	next := s.Reduce(state, LifecycleAction("api/q", PhasePending, "list", Payload{}))
	next = s.Reduce(next, s.SetPageData("list", Payload{Results: []any{record(2)}, Page: 2}))

	if !reflect.DeepEqual(state["users/list"].(ListState), snapshot) {
		t.Fatalf("input state mutated: %#v", state["users/list"])
	}
	if reflect.DeepEqual(next["users/list"], state["users/list"]) {
		t.Fatalf("expected a new state")
	}
}

func TestReduceNilStateStartsFromInitial(t *testing.T) {
	s := newUsers(t)
	state := s.Reduce(nil, Action{Type: "unrelated"})
	if !reflect.DeepEqual(state, s.InitialState()) {
		t.Fatalf("expected initial state, got %#v", state)
	}
}

func TestSetPageDataRouting(t *testing.T) {
	logger := &captureLogger{}
	s := newUsers(t, WithLogger(logger), WithDefaults(NoDefaultsFor("drafts")))
	state := s.InitialState()

	state = s.Reduce(state, s.SetPageData("list", Payload{Results: []any{"a"}, Page: 1}))
	state = s.Reduce(state, s.SetPageData("users/list", Payload{Results: []any{"b"}, Page: 2}))
	list := state["users/list"].(ListState)
	if !reflect.DeepEqual(list.Results, []any{"a", "b"}) || list.Page != 2 {
		t.Fatalf("unexpected page data state %#v", list)
	}

	unchanged := s.Reduce(state, s.SetPageData("drafts", Payload{Results: []any{"x"}}))
	if !reflect.DeepEqual(unchanged["users/drafts"], []any{"d1"}) {
		t.Fatalf("opted-out field should be ignored, got %#v", unchanged["users/drafts"])
	}
	if !logger.has(DiagnosticDefaultsDisabled) {
		t.Fatalf("expected defaults_disabled diagnostic, got %v", logger.kinds())
	}

	lifecycle := s.Reduce(state, fulfilled("drafts", "x"))
	if !reflect.DeepEqual(lifecycle["users/drafts"], []any{"d1"}) {
		t.Fatalf("lifecycle on opted-out field should be ignored")
	}
}

func TestNoDefaultsSkipsLifecycleEntirely(t *testing.T) {
	recorder := &countingRecorder{}
	s := newUsers(t, WithDefaults(NoDefaults()), WithRecorder(recorder))
	state := s.InitialState()
	if _, ok := state["users/list"].(ListState); ok {
		t.Fatalf("no envelope expected with defaults disabled")
	}
	next := s.Reduce(state, fulfilled("list", "a"))
	if !reflect.DeepEqual(next, state) {
		t.Fatalf("lifecycle should be ignored")
	}
	if len(recorder.calls) != 0 {
		t.Fatalf("ignored lifecycle should not be recorded, got %v", recorder.calls)
	}
}

func TestReduceAcceptsMapEnvelope(t *testing.T) {
	s := newUsers(t)
	state := State{"users/list": map[string]any{"results": []any{"a"}, "page": 1.0, "hasMore": true}}
	next := s.Reduce(state, s.SetPageData("list", Payload{Results: []any{"b"}, Page: 2}))
	if got := next["users/list"].(ListState).Results; !reflect.DeepEqual(got, []any{"a", "b"}) {
		t.Fatalf("map envelope not honoured, got %v", got)
	}
}

func TestHydrate(t *testing.T) {
	logger := &captureLogger{}
	s := newUsers(t, WithHydrate(true), WithLogger(logger))
	state := s.InitialState()

	action := HydrateAction(RootState{
		"users": {"users/count": 7, "list": ListState{Results: []any{"h"}}, "users/unknown": 1},
		"posts": {"posts/list": []any{}},
	})
	next := s.Reduce(state, action)
	if next["users/count"] != 7 {
		t.Fatalf("expected hydrated count, got %#v", next["users/count"])
	}
	if got := next["users/list"].(ListState).Results; !reflect.DeepEqual(got, []any{"h"}) {
		t.Fatalf("expected hydrated list, got %v", got)
	}
	if _, ok := next["users/unknown"]; ok {
		t.Fatalf("unknown keys must not be merged")
	}
	if state["users/count"] != 0 {
		t.Fatalf("input mutated by hydrate")
	}
	if !logger.has(DiagnosticHydrate) {
		t.Fatalf("expected hydrate diagnostic")
	}

	ignored := s.Reduce(state, HydrateAction(RootState{"posts": {}}))
	if !reflect.DeepEqual(ignored, state) {
		t.Fatalf("hydrate without entry should be a no-op")
	}
}

func TestHydrateDisabledAndCustomType(t *testing.T) {
	off := newUsers(t)
	state := off.InitialState()
	next := off.Reduce(state, HydrateAction(RootState{"users": {"users/count": 3}}))
	if next["users/count"] != 0 {
		t.Fatalf("hydrate must be ignored unless enabled")
	}

	custom := newUsers(t, WithHydrate(true), WithHydrateType("app/hydrate"))
	action := HydrateAction(RootState{"users": {"count": 5}})
	if got := custom.Reduce(state, action); got["users/count"] != 0 {
		t.Fatalf("default hydrate type must not match a custom one")
	}
	action.Type = "app/hydrate"
	if got := custom.Reduce(state, action); got["users/count"] != 5 {
		t.Fatalf("custom hydrate type should apply, got %#v", got["users/count"])
	}
}

func TestCustomReducer(t *testing.T) {
	s := newUsers(t, WithReducer("increment", func(state State, action Action) State {
		by, _ := action.Payload.Value.(int)
		current, _ := state["users/count"].(int)
		state["users/count"] = current + by
		return state
	}), WithReducer("noop", func(State, Action) State { return nil }))

	state := s.InitialState()
	next := s.Reduce(state, s.Action("increment", 2))
	if next["users/count"] != 2 {
		t.Fatalf("expected 2, got %#v", next["users/count"])
	}
	if state["users/count"] != 0 {
		t.Fatalf("custom reducer received the caller's map")
	}
	if got := s.Reduce(state, s.Action("noop", nil)); !reflect.DeepEqual(got, state) {
		t.Fatalf("nil result should keep the state")
	}
	if got := s.Reduce(state, Action{Type: "posts/increment"}); !reflect.DeepEqual(got, state) {
		t.Fatalf("foreign action must not reach the reducer")
	}
}

func TestReduceContextEmitsActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	logger := &captureLogger{}
	failing := activity.HookFunc(func(context.Context, activity.Event) error { return errors.New("hook down") })
	s := newUsers(t, WithActivityHooks(activity.Hooks{capture, nil, failing}), WithActivityChannel("users-feed"), WithLogger(logger))

	action := fulfilled("list", record(1))
	state := s.ReduceContext(context.Background(), nil, action)
	_ = s.ReduceContext(context.Background(), state, fulfilled("missing", record(2)))

	events := capture.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event for the applied transition, got %d", len(events))
	}
	event := events[0]
	if event.Verb != "slice.fulfilled" || event.ObjectID != "users/list" || event.Channel != "users-feed" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.RequestID != action.Meta.RequestID || event.RequestID == "" {
		t.Fatalf("expected request id %q, got %q", action.Meta.RequestID, event.RequestID)
	}
	if !logger.has(DiagnosticActivity) {
		t.Fatalf("expected hook failure diagnostic, got %v", logger.kinds())
	}
	if hooks := s.ActivityHooks(); len(hooks) != 2 {
		t.Fatalf("expected nil hooks dropped, got %d", len(hooks))
	}
}

func TestActivityHooksDefaultNil(t *testing.T) {
	if hooks := newUsers(t).ActivityHooks(); hooks != nil {
		t.Fatalf("expected nil hooks by default, got %+v", hooks)
	}
}

func TestRecorderSeesEveryHandledAction(t *testing.T) {
	recorder := &countingRecorder{}
	s := newUsers(t, WithRecorder(recorder), WithHydrate(true))
	state := s.Reduce(nil, fulfilled("list", "a"))
	state = s.Reduce(state, s.SetPageData("count", Payload{}))
	state = s.Reduce(state, HydrateAction(RootState{"users": {"count": 1}}))
	_ = s.Reduce(state, Action{Type: "unrelated"})

	want := []string{
		"users:fulfilled:applied",
		"users:page_data:defaults_disabled",
		"users:hydrate:applied",
	}
	if !reflect.DeepEqual(recorder.calls, want) {
		t.Fatalf("unexpected recorder calls:\nwant %v\n got %v", want, recorder.calls)
	}
}

func TestConstructionDiagnostic(t *testing.T) {
	logger := &captureLogger{}
	_ = newUsers(t, WithLogger(logger))
	if kinds := logger.kinds(); len(kinds) == 0 || kinds[0] != DiagnosticConstructed {
		t.Fatalf("expected constructed diagnostic first, got %v", kinds)
	}
}

func TestSliceConcurrentReduce(t *testing.T) {
	s := newUsers(t)
	base := s.InitialState()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := s.Reduce(base, fulfilled("list", record(i)))
			if len(next["users/list"].(ListState).Results) != 1 {
				t.Errorf("unexpected results for %d", i)
			}
		}(i)
	}
	wg.Wait()
}
