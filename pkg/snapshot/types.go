package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-slicekit"
)

var ErrETagMismatch = errors.New("snapshot: etag mismatch")

// Scopes understood by Ref.Identifier.
const (
	ScopeGlobal  = "global"
	ScopeTenant  = "tenant"
	ScopeUser    = "user"
	ScopeSession = "session"
)

// Ref identifies one persisted snapshot of one slice.
type Ref struct {
	Slice string
	Scope string
	ID    string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one slice state for a single reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (state slicekit.State, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, state slicekit.State, meta Meta) (Meta, error)
}

// Identifier returns the canonical storage key for r.
func (r Ref) Identifier() (string, error) {
	if r.Slice == "" {
		return "", fmt.Errorf("snapshot: slice is required")
	}
	switch r.Scope {
	case "", ScopeGlobal:
		return ScopeGlobal + "/" + r.Slice, nil
	case ScopeTenant, ScopeUser, ScopeSession:
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return "", fmt.Errorf("snapshot: missing id for scope %q", r.Scope)
		}
		return fmt.Sprintf("%s/%s/%s", r.Scope, id, r.Slice), nil
	default:
		return "", fmt.Errorf("snapshot: unsupported scope %q", r.Scope)
	}
}

func (r Ref) scopeLabel() string {
	if r.Scope == "" {
		return ScopeGlobal
	}
	return r.Scope
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
