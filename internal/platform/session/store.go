package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Store is a thread-safe in-memory session registry. Each session holds one
// value built by the factory on creation and expires after ttl without use.
type Store[T any] struct {
	mu       sync.RWMutex
	entries  map[string]*entry[T]
	ttl      time.Duration
	newValue func() T
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore[T any](ttl time.Duration, newValue func() T) *Store[T] {
	return &Store[T]{
		entries:  make(map[string]*entry[T]),
		ttl:      ttl,
		newValue: newValue,
		now:      time.Now,
	}
}

// Create starts a new session and returns its ID and value.
func (s *Store[T]) Create() (string, T) {
	id := uuid.NewString()
	v := s.newValue()
	s.mu.Lock()
	s.entries[id] = &entry[T]{value: v, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return id, v
}

// Get returns a live session and extends its expiry.
func (s *Store[T]) Get(id string) (T, bool) {
	var zero T
	if id == "" {
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return zero, false
	}
	now := s.now()
	if now.After(e.expiresAt) {
		delete(s.entries, id)
		return zero, false
	}
	e.expiresAt = now.Add(s.ttl)
	return e.value, true
}

// Delete removes a session.
func (s *Store[T]) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Len returns the number of stored sessions, expired ones included.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store[T]) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Store[T]) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
