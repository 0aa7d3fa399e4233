// Package snapshot persists slice states per scope and turns stored
// snapshots back into hydrate actions.
//
// A Store only loads and saves one State for one Ref. The Hydrator loads
// several refs, merges them in order and returns a single hydrate action
// that slices configured WithHydrate(true) merge into their state:
//
//	Store -> Hydrator.Hydrate(refs...) -> slicekit.Action -> Slice.Reduce
//
// Ref.Identifier() gives a deterministic storage key, "global/<slice>" for the
// global scope and "<scope>/<id>/<slice>" for session, user and tenant scopes.
package snapshot
