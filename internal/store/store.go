// Package store provides the shared mutable state of the application: holders
// for the latest price table and portfolio snapshot.
package store

import "sync/atomic"

// Store holds the most recent complete value of T. Publishers replace the
// value wholesale with a freshly built one; a concurrent reader observes
// either the fully old or the fully new value, never a mix. The zero Store is
// empty ("not yet populated") and ready to use.
type Store[T any] struct {
	v atomic.Pointer[T]
}

// Replace publishes a freshly built value. The caller must not mutate v after
// publishing it.
func (s *Store[T]) Replace(v *T) {
	s.v.Store(v)
}

// Load returns the current value. ok is false while the store has never been
// populated.
func (s *Store[T]) Load() (*T, bool) {
	v := s.v.Load()
	return v, v != nil
}
