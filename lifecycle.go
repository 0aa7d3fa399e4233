package slicekit

import "strings"

// Lifecycle phases of an async operation, matched against action type
// suffixes.
const (
	PhasePending   = "pending"
	PhaseFulfilled = "fulfilled"
	PhaseRejected  = "rejected"
)

// lifecyclePhase extracts the phase from an action type such as
// "api/executeQuery/fulfilled".
func lifecyclePhase(actionType string) (string, bool) {
	idx := strings.LastIndex(actionType, KeySeparator)
	if idx < 0 {
		return "", false
	}
	switch phase := actionType[idx+1:]; phase {
	case PhasePending, PhaseFulfilled, PhaseRejected:
		return phase, true
	}
	return "", false
}

// ApplyPending marks sub as loading.
func ApplyPending(sub ListState) ListState {
	next := sub.clone()
	next.IsLoading = true
	return next
}

// ApplyRejected clears the loading flag and records errors.
func ApplyRejected(sub ListState, errors any) ListState {
	next := sub.clone()
	next.IsLoading = false
	next.Errors = errors
	return next
}

// ApplyFulfilled merges a completed fetch into sub.
//
// With existing results the incoming items are merged only when the
// de-duplicated union is unique, the current results are unique and HasMore
// is false. Otherwise empty current results, or a current page of 1, take the
// incoming results wholesale. Loading is always cleared.
func ApplyFulfilled(sub ListState, payload Payload) ListState {
	next := sub.clone()
	next.IsLoading = false

	incoming, ok := asItems(payload.Results)
	if !ok || len(incoming) == 0 {
		return next
	}

	current := next.Results
	combined := Unique(appendItems(current, incoming))
	switch {
	case len(current) > 0 && IsUnique(combined) && IsUnique(current) && !next.HasMore:
		next.Results = combined
	case len(current) == 0 || isFirstPage(next.Page):
		next.Results = cloneItems(incoming)
	}
	return next
}
