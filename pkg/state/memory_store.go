package state

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-project/layering"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation keyed by Ref.Identifier.
// Saves stamp a fresh snapshot id and etag; a stale etag on save is rejected
// with ErrETagMismatch.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	partial map[string]any
	meta    Meta
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

// Load implements the Store interface.
func (s *MemoryStore) Load(_ context.Context, ref Ref) (map[string]any, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return layering.Clone(record.partial), cloneMeta(record.meta), true, nil
}

// Save implements the Store interface.
func (s *MemoryStore) Save(_ context.Context, ref Ref, partial map[string]any, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[key]; ok {
		if meta.ETag != "" && existing.meta.ETag != "" && meta.ETag != existing.meta.ETag {
			return Meta{}, ErrETagMismatch
		}
	}

	saved := cloneMeta(meta)
	saved.SnapshotID = uuid.NewString()
	saved.ETag = uuid.NewString()
	saved.UpdatedAt = time.Now()

	s.records[key] = memoryRecord{
		partial: layering.Clone(partial),
		meta:    saved,
	}
	return cloneMeta(saved), nil
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
