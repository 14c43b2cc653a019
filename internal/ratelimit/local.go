package ratelimit

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// sweepDenominator sets the opportunistic cleanup probability: roughly one
// in every hundred accesses scans the table and drops expired entries.
// There is no background timer; memory overshoot between sweeps is bounded
// by the busiest window.
const sweepDenominator = 100

// counterEntry is one identifier's fixed window. count increments until
// windowResetAt passes, after which the window restarts. blockedHits counts
// rejections against a saturated window; it never resets and exists purely
// for diagnostics.
type counterEntry struct {
	mu            sync.Mutex
	count         int
	windowResetAt time.Time
	blockedHits   int
}

// LocalStore approximates the policy contract without any external
// dependency. It is the fallback when the shared counter backend is
// unreachable, and the only backend in local-only mode. State is process
// local: multiple instances do not share fallback counts, so degraded mode
// protects per instance only.
type LocalStore struct {
	entries     sync.Map // key string -> *counterEntry
	entryCount  atomic.Int64
	blockedHits atomic.Int64

	// now is swappable so window expiry is testable without sleeping
	now func() time.Time
}

// NewLocalStore creates an empty fallback store.
func NewLocalStore() *LocalStore {
	return &LocalStore{now: time.Now}
}

// CheckAndIncrement counts one request for key under policy and returns the
// resulting decision. Increments on one key are serialized by a per-entry
// mutex; distinct keys do not contend.
func (s *LocalStore) CheckAndIncrement(key string, policy Policy) Decision {
	now := s.now()

	if rand.Intn(sweepDenominator) == 0 {
		s.sweep(now)
	}

	value, loaded := s.entries.LoadOrStore(key, &counterEntry{})
	if !loaded {
		s.entryCount.Add(1)
	}
	entry := value.(*counterEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !now.Before(entry.windowResetAt) {
		// Expired or brand new: start a fresh window with this request
		entry.count = 1
		entry.windowResetAt = now.Add(policy.Window)
		return Decision{
			Allowed:   true,
			Remaining: policy.Limit - 1,
			Limit:     policy.Limit,
			ResetAt:   entry.windowResetAt,
			Source:    SourceLocal,
		}
	}

	if entry.count < policy.Limit {
		entry.count++
		return Decision{
			Allowed:   true,
			Remaining: policy.Limit - entry.count,
			Limit:     policy.Limit,
			ResetAt:   entry.windowResetAt,
			Source:    SourceLocal,
		}
	}

	entry.blockedHits++
	s.blockedHits.Add(1)
	return Decision{
		Allowed:   false,
		Remaining: 0,
		Limit:     policy.Limit,
		ResetAt:   entry.windowResetAt,
		Source:    SourceLocal,
	}
}

// Remove deletes the window for key, restoring its full quota.
func (s *LocalStore) Remove(key string) {
	if _, loaded := s.entries.LoadAndDelete(key); loaded {
		s.entryCount.Add(-1)
	}
}

// Len returns the number of live entries, expired ones included until the
// next sweep reclaims them.
func (s *LocalStore) Len() int {
	return int(s.entryCount.Load())
}

// BlockedHits returns the total rejections recorded across all entries
// since the store was created.
func (s *LocalStore) BlockedHits() int {
	return int(s.blockedHits.Load())
}

func (s *LocalStore) sweep(now time.Time) {
	s.entries.Range(func(key, value interface{}) bool {
		entry := value.(*counterEntry)
		entry.mu.Lock()
		expired := !now.Before(entry.windowResetAt)
		entry.mu.Unlock()
		if expired {
			if _, loaded := s.entries.LoadAndDelete(key); loaded {
				s.entryCount.Add(-1)
			}
		}
		return true
	})
}
