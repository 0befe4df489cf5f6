package precompute

import (
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	payload    json.RawMessage
	computedAt time.Time
}

// Store holds named computation payloads for a bounded TTL. Entries are
// advisory: losing them only costs a recomputation, so there is no durable
// backing and a restart starts empty.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{ttl: ttl, now: now, entries: make(map[string]entry)}
}

// Get returns the payload and its computation time if a fresh entry exists.
// A stale entry reads as absent; it is overwritten on the next Set.
func (s *Store) Get(name string) (json.RawMessage, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok || s.now().Sub(e.computedAt) >= s.ttl {
		return nil, time.Time{}, false
	}
	return e.payload, e.computedAt, true
}

func (s *Store) Set(name string, payload json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = entry{payload: payload, computedAt: s.now()}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
}
