package store

import (
	"sync"
	"time"

	"github.com/google/btree"

	"kvstorage/internal/clock"
	"kvstorage/internal/metrics"
)

// btreeDegree is the branching factor for both trees. 16 keeps nodes
// cache-friendly for string keys without deep trees.
const btreeDegree = 16

// Store is a concurrency-safe in-memory key–value store with per-record TTL.
//
// Design principles:
// - Two coupled ordered indexes: records by key (for sorted range scans)
//   and expiry entries by (expiry, key) (for minimum-first reclamation).
// - One RWMutex guards both; every visible state is a consistent pair.
// - Expiry is lazy on reads and explicit via RemoveOneExpiredEntry.
// - Time comes from an injected clock, never from time.Now directly.
//
// Invariants held at every lock release:
// - A record with an expiry has exactly one matching expiry-index entry;
//   a permanent record has none.
// - Every expiry-index entry refers to a live record with that expiry.
type Store struct {
	mu      sync.RWMutex
	records *btree.BTreeG[record]
	expiry  *btree.BTreeG[expiryEntry]
	clock   clock.Clock
	metrics *metrics.Registry
}

// New builds a store and bulk-loads entries by applying Set in sequence
// order, so a later duplicate key overwrites an earlier one.
func New(entries []SeedEntry, clk clock.Clock, reg *metrics.Registry) *Store {
	s := &Store{
		records: btree.NewG(btreeDegree, lessRecord),
		expiry:  btree.NewG(btreeDegree, lessExpiry),
		clock:   clk,
		metrics: reg,
	}
	for _, e := range entries {
		s.Set(e.Key, e.Value, e.TTLSeconds)
	}
	return s
}

// Set inserts or replaces the record for key. ttlSeconds of zero means
// the record never expires; a positive value counts from the clock's now.
//
// When the key already holds an expiry, its stale expiry-index entry is
// removed before the new state goes in. Leaving it behind would let
// reclamation later evict a record whose TTL was cleared or extended.
func (s *Store) Set(key, value string, ttlSeconds uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Inc(metrics.StoreSetsTotal)

	var expiry time.Time
	if ttlSeconds > 0 {
		expiry = s.clock.Now().Add(time.Duration(ttlSeconds) * time.Second)
	}

	old, existed := s.records.Get(record{key: key})
	if existed && !old.expiry.IsZero() {
		s.expiry.Delete(expiryEntry{expiry: old.expiry, key: key})
	}

	s.records.ReplaceOrInsert(record{key: key, value: value, expiry: expiry})
	if !expiry.IsZero() {
		s.expiry.ReplaceOrInsert(expiryEntry{expiry: expiry, key: key})
	}

	if !existed {
		s.metrics.Inc(metrics.StoreKeysTotal)
	}
}

// Get retrieves a value.
//
// Behavior:
// - Returns (value, true) if the key exists and is not expired.
// - An expired record reads as absent but is not deleted; reclamation
//   remains a separate, explicit step.
func (s *Store) Get(key string) (string, bool) {
	s.metrics.Inc(metrics.StoreGetsTotal)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records.Get(record{key: key})
	if !ok {
		s.metrics.Inc(metrics.StoreMissesTotal)
		return "", false
	}

	if rec.expired(s.clock.Now()) {
		s.metrics.Inc(metrics.StoreExpiredReadsTotal)
		return "", false
	}

	return rec.value, true
}

// Remove deletes the record and its expiry-index entry, if any, and
// reports whether a record existed. Removing an absent key is a no-op.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records.Delete(record{key: key})
	if !ok {
		return false
	}

	if !rec.expiry.IsZero() {
		s.expiry.Delete(expiryEntry{expiry: rec.expiry, key: key})
	}

	s.metrics.Inc(metrics.StoreRemovesTotal)
	s.metrics.Add(metrics.StoreKeysTotal, -1)
	return true
}

// GetManySorted returns up to count live records whose keys are strictly
// greater than fromKey, in ascending key order. Expired records are
// skipped, not deleted. Each call is a fresh scan from fromKey.
func (s *Store) GetManySorted(fromKey string, count uint32) []KeyValue {
	s.metrics.Inc(metrics.ScanRequestsTotal)

	out := make([]KeyValue, 0, count)
	if count == 0 {
		return out
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	skipped := 0
	s.records.AscendGreaterOrEqual(record{key: fromKey}, func(rec record) bool {
		if rec.key == fromKey {
			// lower bound is exclusive
			return true
		}
		if rec.expired(now) {
			skipped++
			return true
		}
		out = append(out, KeyValue{Key: rec.key, Value: rec.value})
		return uint32(len(out)) < count
	})

	s.metrics.Add(metrics.ScanReturnedTotal, int64(len(out)))
	s.metrics.Add(metrics.ScanExpiredSkippedTotal, int64(skipped))
	return out
}

// RemoveOneExpiredEntry reclaims at most one record per call: the one
// with the smallest (expiry, key) among entries whose expiry is at or
// before now. Record and index entry are removed together. Returns
// ok=false when the index is empty or its minimum has not expired yet.
//
// One entry per call bounds lock-hold time; a periodic sweeper calls it
// in a loop until it reports nothing left.
func (s *Store) RemoveOneExpiredEntry() (key, value string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	min, ok := s.expiry.Min()
	if !ok || min.expiry.After(s.clock.Now()) {
		return "", "", false
	}

	s.expiry.Delete(min)
	rec, ok := s.records.Delete(record{key: min.key})
	if !ok {
		// Unreachable while the index invariants hold; dropping the
		// orphan entry above keeps the structures self-healing.
		return "", "", false
	}

	s.metrics.Inc(metrics.ReclaimRemovedTotal)
	s.metrics.Add(metrics.StoreKeysTotal, -1)
	return min.key, rec.value, true
}

// Len returns the number of stored records, counting expired records
// that have not been reclaimed yet.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Len()
}
