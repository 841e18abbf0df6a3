// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cache keeps dispatcher responses in memory, keyed by a
// request fingerprint, for a bounded time. Expiry is always computed
// from the entry's age; it is never stored as a flag.
package cache

import (
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("servicebridge.cache")

// entry is one cached payload. Owned exclusively by the Store.
type entry struct {
	payload   []byte
	createdAt time.Time
	ttl       time.Duration
}

// expired reports whether the entry's age exceeds its ttl at now.
func (e entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Store is an in-memory TTL cache. All mutation - read-evict, write
// and sweep - is serialized through one mutex, so concurrent callers
// never observe a half written entry.
type Store struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]entry
}

// NewStore returns an empty store using the given clock for expiry
// arithmetic.
func NewStore(clk clock.Clock) *Store {
	return &Store{
		clock:   clk,
		entries: make(map[string]entry),
	}
}

// Get returns the payload stored under key. An entry past its ttl is
// evicted on the spot and reported as a miss.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(s.clock.Now()) {
		delete(s.entries, key)
		return nil, false
	}
	payload := make([]byte, len(e.payload))
	copy(payload, e.payload)
	return payload, true
}

// Set stores the payload under key for ttl. A later write for the same
// key wins over an earlier one.
func (s *Store) Set(key string, payload []byte, ttl time.Duration) {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		payload:   stored,
		createdAt: s.clock.Now(),
		ttl:       ttl,
	}
}

// Sweep removes every expired entry, bounding memory even when keys
// are never read again. It returns the number of entries evicted.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	evicted := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of entries currently held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
