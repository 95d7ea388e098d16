package store

import "time"

// SeedEntry is one (key, value, ttl) triple for bulk construction.
// A TTL of zero means the record never expires.
type SeedEntry struct {
	Key        string
	Value      string
	TTLSeconds uint32
}

// KeyValue is a single result pair returned by range scans and reclamation.
type KeyValue struct {
	Key   string
	Value string
}

// record is the stored form of a key.
// The zero value of expiry means "no expiration".
type record struct {
	key    string
	value  string
	expiry time.Time
}

// expired reports whether the record is gone at the given instant.
// The boundary is closed: a record whose expiry equals now is expired.
func (r record) expired(now time.Time) bool {
	if r.expiry.IsZero() {
		return false
	}
	return !r.expiry.After(now)
}

// expiryEntry indexes a record by its expiry so reclamation can find
// the next record to expire in O(log n).
type expiryEntry struct {
	expiry time.Time
	key    string
}

func lessRecord(a, b record) bool {
	return a.key < b.key
}

// lessExpiry orders entries by (expiry, key); the key is the tie-break
// for equal timestamps.
func lessExpiry(a, b expiryEntry) bool {
	if !a.expiry.Equal(b.expiry) {
		return a.expiry.Before(b.expiry)
	}
	return a.key < b.key
}
