package auth

import (
	"sync"
	"time"
)

// StateStore holds OAuth state nonces between the authorize redirect and the
// callback. It is process-wide state with inline TTL-based eviction: expired
// entries are swept on every insert, so the map stays bounded by login
// attempts inside one TTL window.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{
		states: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Put registers a state nonce and sweeps expired entries.
func (s *StateStore) Put(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	for key, issued := range s.states {
		if issued.Before(cutoff) {
			delete(s.states, key)
		}
	}
	s.states[state] = s.now()
}

// Consume verifies a state nonce and burns it: a state can be consumed at
// most once, and only within its TTL.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	issued, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return !issued.Before(s.now().Add(-s.ttl))
}
