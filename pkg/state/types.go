// Package state persists partial configuration documents per scope so
// collaborators can plug durable contributions into the extension registry.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	project "github.com/goliatone/go-project"
)

// ErrETagMismatch indicates a concurrent modification was detected on save.
var ErrETagMismatch = errors.New("state: etag mismatch")

// Ref identifies one persisted partial for one configuration domain.
type Ref struct {
	Domain string
	Scope  string
}

// Identifier returns the deterministic storage key for the reference.
func (r Ref) Identifier() (string, error) {
	domain := strings.TrimSpace(r.Domain)
	if domain == "" {
		return "", fmt.Errorf("state: domain is required")
	}
	scope := strings.TrimSpace(r.Scope)
	if scope == "" {
		return fmt.Sprintf("document/%s", domain), nil
	}
	return fmt.Sprintf("%s/%s", scope, domain), nil
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one partial document per scope reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (partial map[string]any, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, partial map[string]any, meta Meta) (Meta, error)
}

// Contribution adapts a stored partial into a registry contribution. The
// store is consulted on every composition, so saved changes show up in the
// next resolve without re-registration. A missing partial contributes
// nothing.
func Contribution(store Store, ref Ref) project.Contribution {
	return project.Producer(func(project.EvalContext) (map[string]any, error) {
		if store == nil {
			return nil, fmt.Errorf("state: store is required")
		}
		partial, _, ok, err := store.Load(context.Background(), ref)
		if err != nil {
			return nil, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope, err)
		}
		if !ok {
			return nil, nil
		}
		return partial, nil
	})
}
