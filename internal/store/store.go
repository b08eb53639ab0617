// Package store provides durable keyed storage for enriched user records.
package store

import (
	"context"
	"sync"

	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/enrichment"
)

// UserStore is the capability the pipeline depends on. Put is last-write-wins
// on id and must not partially write; Get returns a not_found AppError for
// unknown ids, keeping connectivity failures distinguishable by type.
type UserStore interface {
	Put(ctx context.Context, id string, user *enrichment.EnrichedUser) error
	Get(ctx context.Context, id string) (*enrichment.EnrichedUser, error)
	Health(ctx context.Context) error
	Close() error
}

// MemoryStore is the in-process backend. The mutex keeps concurrent Get/Put
// safe when several components share one instance.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]enrichment.EnrichedUser
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]enrichment.EnrichedUser)}
}

// Put stores a copy of user under id, overwriting any prior value.
func (s *MemoryStore) Put(_ context.Context, id string, user *enrichment.EnrichedUser) error {
	if id == "" {
		return errors.ValidationError("store id is required")
	}
	if user == nil {
		return errors.ValidationError("store value is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = *user
	return nil
}

// Get returns the most recently stored value for id.
func (s *MemoryStore) Get(_ context.Context, id string) (*enrichment.EnrichedUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, errors.NotFoundError("user " + id)
	}

	copied := user
	return &copied, nil
}

// Health always succeeds for the in-process backend.
func (s *MemoryStore) Health(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-process backend.
func (s *MemoryStore) Close() error {
	return nil
}
