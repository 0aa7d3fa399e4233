package slicekit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-slicekit/pkg/activity"
)

// SetPageDataReducer names the built-in explicit pagination reducer.
const SetPageDataReducer = "setPageData"

// Action kinds reported to Recorders and activity hooks.
const (
	KindPending   = PhasePending
	KindFulfilled = PhaseFulfilled
	KindRejected  = PhaseRejected
	KindPageData  = "page_data"
	KindHydrate   = "hydrate"
	KindCustom    = "custom"
)

// Outcomes reported to Recorders and activity hooks.
const (
	OutcomeApplied          = "applied"
	OutcomeInvalidKey       = "invalid_key"
	OutcomeDefaultsDisabled = "defaults_disabled"
	OutcomeIgnored          = "ignored"
)

// Slice is a named state container with generated selectors and the
// built-in paginated list reducers. A Slice is immutable after New and safe
// for concurrent use; the state it reduces is owned by the caller.
type Slice struct {
	name    string
	fields  Fields
	keys    *KeyTable
	lists   map[string]struct{}
	cfg     sliceConfig
	emitter *activity.Emitter
	derived map[string]CompiledSelector
}

// transition summarises what Reduce did with an action.
type transition struct {
	kind    string
	outcome string
	key     string
	before  any
	after   any
}

// New builds the slice name from fields.
func New(name string, fields Fields, opts ...Option) (*Slice, error) {
	cfg := applyOptions(opts)
	if err := errors.Join(cfg.errs...); err != nil {
		return nil, fmt.Errorf("slicekit: slice %q: %w", name, err)
	}

	keys, err := NewKeyTable(name, fields.Keys())
	if err != nil {
		return nil, err
	}

	s := &Slice{
		name:    name,
		fields:  make(Fields, len(fields)),
		keys:    keys,
		lists:   map[string]struct{}{},
		cfg:     cfg,
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{Enabled: true, Channel: cfg.activityChannel}),
	}
	for key, field := range fields {
		if field.Kind != FieldScalar && field.Kind != FieldList {
			return nil, fmt.Errorf("slicekit: slice %q: field %q has no kind", name, key)
		}
		s.fields[key] = field
		if usesListDefaults(key, field, cfg.defaults) {
			s.lists[key] = struct{}{}
		}
	}
	for reducer := range cfg.reducers {
		if reducer == SetPageDataReducer {
			return nil, fmt.Errorf("slicekit: slice %q: reducer name %q is reserved", name, reducer)
		}
	}
	if err := s.compileDerived(); err != nil {
		return nil, err
	}

	s.log(Diagnostic{
		Kind:    DiagnosticConstructed,
		Message: fmt.Sprintf("slice %q built with %d fields (%d paginated)", name, len(fields), len(s.lists)),
	})
	return s, nil
}

// Name returns the slice name.
func (s *Slice) Name() string {
	return s.name
}

// Keys returns the slice key table.
func (s *Slice) Keys() *KeyTable {
	return s.keys
}

// Fields returns a copy of the field declarations.
func (s *Slice) Fields() Fields {
	out := make(Fields, len(s.fields))
	for key, field := range s.fields {
		field.Seed = cloneItems(field.Seed)
		out[key] = field
	}
	return out
}

// Defaults returns the slice defaults policy.
func (s *Slice) Defaults() DefaultsPolicy {
	return s.cfg.defaults
}

// KindOf reports how key is stored: FieldList only when the key carries the
// ListState envelope.
func (s *Slice) KindOf(key string) (FieldKind, bool) {
	base, ok := s.keys.Base(key)
	if !ok {
		return 0, false
	}
	if _, ok := s.lists[base]; ok {
		return FieldList, true
	}
	return FieldScalar, true
}

// InitialState returns a freshly derived initial state.
func (s *Slice) InitialState() State {
	return DeriveInitialState(s.name, s.fields, s.cfg.defaults)
}

// ActionType returns the action type for the named reducer of this slice.
func (s *Slice) ActionType(reducer string) string {
	return s.name + KeySeparator + reducer
}

// Action builds an action for a custom case reducer.
func (s *Slice) Action(reducer string, value any) Action {
	return Action{
		Type:    s.ActionType(reducer),
		Meta:    Meta{RequestID: newRequestID()},
		Payload: Payload{Value: value},
	}
}

// SetPageData builds the explicit pagination action for key.
func (s *Slice) SetPageData(key string, payload Payload) Action {
	queryType := key
	if namespaced, ok := s.keys.Namespaced(key); ok {
		queryType = namespaced
	}
	return Action{
		Type:    s.ActionType(SetPageDataReducer),
		Meta:    Meta{QueryType: queryType, RequestID: newRequestID()},
		Payload: payload,
	}
}

// Pending builds the pending event of operation for key.
func (s *Slice) Pending(operation, key string) Action {
	return s.lifecycle(operation, PhasePending, key, Payload{})
}

// Fulfilled builds the fulfilled event of operation for key.
func (s *Slice) Fulfilled(operation, key string, payload Payload) Action {
	return s.lifecycle(operation, PhaseFulfilled, key, payload)
}

// Rejected builds the rejected event of operation for key carrying cause.
func (s *Slice) Rejected(operation, key string, cause any) Action {
	action := s.lifecycle(operation, PhaseRejected, key, Payload{})
	action.Error = cause
	return action
}

func (s *Slice) lifecycle(operation, phase, key string, payload Payload) Action {
	queryType := key
	if namespaced, ok := s.keys.Namespaced(key); ok {
		queryType = namespaced
	}
	return LifecycleAction(s.ActionType(operation), phase, queryType, payload)
}

// Reduce returns the state that results from applying action to state. A nil
// state is treated as the initial state. The input is never mutated; when the
// action does not apply the input state is returned as-is.
func (s *Slice) Reduce(state State, action Action) State {
	next, _ := s.reduce(state, action)
	return next
}

// ReduceContext is Reduce followed by activity emission for applied
// transitions. Hook failures are logged and never surface to the caller.
func (s *Slice) ReduceContext(ctx context.Context, state State, action Action) State {
	next, tr := s.reduce(state, action)
	if tr == nil || tr.outcome != OutcomeApplied || !s.emitter.Enabled() {
		return next
	}
	event := activity.BuildTransitionEvent(activity.TransitionInput{
		Slice:     s.name,
		Key:       tr.key,
		Kind:      tr.kind,
		Action:    action.Type,
		RequestID: action.Meta.RequestID,
		OldValue:  tr.before,
		NewValue:  tr.after,
	})
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.log(Diagnostic{
			Kind:    DiagnosticActivity,
			Action:  action.Type,
			Key:     tr.key,
			Message: "activity hooks failed",
			Err:     err,
		})
	}
	return next
}

func (s *Slice) reduce(state State, action Action) (State, *transition) {
	if state == nil {
		state = s.InitialState()
	}

	var tr *transition
	next := state
	switch {
	case action.Type == s.cfg.hydrateType:
		if !s.cfg.hydrate {
			return state, nil
		}
		next, tr = s.reduceHydrate(state, action)
	case action.Type == s.ActionType(SetPageDataReducer):
		next, tr = s.reducePageData(state, action)
	case s.caseReducer(action.Type) != nil:
		next = s.caseReducer(action.Type)(state.shallow(), action)
		if next == nil {
			next = state
		}
		tr = &transition{kind: KindCustom, outcome: OutcomeApplied}
	default:
		phase, ok := lifecyclePhase(action.Type)
		if !ok || s.cfg.defaults.AllDisabled() || len(s.lists) == 0 {
			return state, nil
		}
		next, tr = s.reduceLifecycle(state, action, phase)
	}

	if tr != nil && s.cfg.recorder != nil {
		s.cfg.recorder.RecordAction(s.name, tr.kind, tr.outcome)
	}
	return next, tr
}

func (s *Slice) reducePageData(state State, action Action) (State, *transition) {
	tr := &transition{kind: KindPageData}
	base, ok := s.resolve(action, action.Meta.QueryType)
	if !ok {
		tr.outcome = OutcomeInvalidKey
		return state, tr
	}
	tr.key = Namespace(s.name, base)
	if _, ok := s.lists[base]; !ok {
		s.log(Diagnostic{
			Kind:    DiagnosticDefaultsDisabled,
			Action:  action.Type,
			Key:     base,
			Message: "default reducers are disabled for this field, page data ignored",
		})
		tr.outcome = OutcomeDefaultsDisabled
		return state, tr
	}

	current := s.listState(state, tr.key)
	updated := ReconcilePage(current, action.Payload)
	return s.commit(state, tr, current, updated), tr
}

func (s *Slice) reduceLifecycle(state State, action Action, phase string) (State, *transition) {
	tr := &transition{kind: phase}
	base, ok := s.resolve(action, action.Meta.QueryType)
	if !ok {
		tr.outcome = OutcomeInvalidKey
		return state, tr
	}
	if _, ok := s.lists[base]; !ok {
		s.log(Diagnostic{
			Kind:    DiagnosticInvalidKey,
			Action:  action.Type,
			Key:     action.Meta.QueryType,
			Message: "field has no paginated envelope, lifecycle event ignored",
		})
		tr.outcome = OutcomeInvalidKey
		return state, tr
	}
	tr.key = Namespace(s.name, base)

	current := s.listState(state, tr.key)
	var updated ListState
	switch phase {
	case PhasePending:
		updated = ApplyPending(current)
	case PhaseRejected:
		errs := action.Error
		if errs == nil {
			errs = action.Payload.Errors
		}
		updated = ApplyRejected(current, errs)
	default:
		updated = ApplyFulfilled(current, action.Payload)
	}
	return s.commit(state, tr, current, updated), tr
}

func (s *Slice) reduceHydrate(state State, action Action) (State, *transition) {
	tr := &transition{kind: KindHydrate, outcome: OutcomeApplied}
	incoming, ok := action.Payload.Snapshot[s.name]
	if !ok {
		s.log(Diagnostic{Kind: DiagnosticHydrate, Action: action.Type, Message: "hydrate payload has no entry for slice"})
		tr.outcome = OutcomeIgnored
		return state, tr
	}

	next := state.shallow()
	merged := 0
	for key, value := range incoming {
		namespaced, ok := s.keys.Namespaced(key)
		if !ok {
			s.log(Diagnostic{Kind: DiagnosticInvalidKey, Action: action.Type, Key: key, Message: "hydrate key not declared, skipped"})
			continue
		}
		next[namespaced] = value
		merged++
	}
	s.log(Diagnostic{Kind: DiagnosticHydrate, Action: action.Type, Message: fmt.Sprintf("hydrated %d fields", merged)})
	return next, tr
}

func (s *Slice) caseReducer(actionType string) CaseReducer {
	name, ok := strings.CutPrefix(actionType, s.name+KeySeparator)
	if !ok {
		return nil
	}
	return s.cfg.reducers[name]
}

// resolve maps a query type to a base key, logging invalid keys.
func (s *Slice) resolve(action Action, queryType string) (string, bool) {
	base, ok := s.keys.Base(queryType)
	if !ok {
		s.log(Diagnostic{
			Kind:    DiagnosticInvalidKey,
			Action:  action.Type,
			Key:     queryType,
			Message: "query type does not resolve to a slice field",
		})
		return "", false
	}
	s.log(Diagnostic{Kind: DiagnosticLookup, Action: action.Type, Key: base})
	return base, true
}

func (s *Slice) listState(state State, namespaced string) ListState {
	if list, ok := state[namespaced].(ListState); ok {
		return list
	}
	if list, ok := state[namespaced].(*ListState); ok && list != nil {
		return *list
	}
	if raw, ok := state[namespaced].(map[string]any); ok {
		return ListStateFromMap(raw)
	}
	base, _ := s.keys.Base(namespaced)
	return NewListState(s.fields[base].Seed)
}

func (s *Slice) commit(state State, tr *transition, before, after ListState) State {
	next := state.shallow()
	next[tr.key] = after
	tr.outcome = OutcomeApplied
	tr.before = before
	tr.after = after
	return next
}

func (s *Slice) log(d Diagnostic) {
	d.Slice = s.name
	s.cfg.logger.LogDiagnostic(d)
}

// HydrateAction builds a hydrate event carrying snapshot.
func HydrateAction(snapshot RootState) Action {
	return Action{
		Type:    HydrateActionType,
		Meta:    Meta{RequestID: newRequestID()},
		Payload: Payload{Snapshot: snapshot},
	}
}

// LifecycleAction builds a lifecycle event for operation targeting the field
// identified by queryType.
func LifecycleAction(operation, phase, queryType string, payload Payload) Action {
	return Action{
		Type:    operation + KeySeparator + phase,
		Meta:    Meta{QueryType: queryType, RequestID: newRequestID()},
		Payload: payload,
	}
}
