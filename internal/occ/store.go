package occ

import "sync"

// store holds the authoritative committed key/value state. An outer
// mutex guards only the existence of a per-key entry; once an entry
// exists, readers and writers serialize only against the same key.
type store[K comparable, V any] struct {
	existenceMu sync.RWMutex
	entries     map[K]*storeEntry[V]
}

type storeEntry[V any] struct {
	mu      sync.RWMutex
	value   V
	present bool
}

func newStore[K comparable, V any]() *store[K, V] {
	return &store[K, V]{entries: make(map[K]*storeEntry[V])}
}

func (s *store[K, V]) get(k K) (V, bool) {
	s.existenceMu.RLock()
	e, ok := s.entries[k]
	s.existenceMu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneValue(e.value), e.present
}

func (s *store[K, V]) upsert(k K, v V) {
	e := s.entryFor(k)
	e.mu.Lock()
	e.value = cloneValue(v)
	e.present = true
	e.mu.Unlock()
}

func (s *store[K, V]) entryFor(k K) *storeEntry[V] {
	s.existenceMu.RLock()
	e, ok := s.entries[k]
	s.existenceMu.RUnlock()
	if ok {
		return e
	}

	s.existenceMu.Lock()
	defer s.existenceMu.Unlock()
	if e, ok = s.entries[k]; ok {
		return e
	}
	e = &storeEntry[V]{}
	s.entries[k] = e
	return e
}

func (s *store[K, V]) len() int {
	s.existenceMu.RLock()
	defer s.existenceMu.RUnlock()
	return len(s.entries)
}

// cloner lets a Value type opt into a defensive copy on every read and
// write. Types with no reference fields need not implement it.
type cloner[V any] interface {
	Clone() V
}

func cloneValue[V any](v V) V {
	if c, ok := any(v).(cloner[V]); ok {
		return c.Clone()
	}
	return v
}
