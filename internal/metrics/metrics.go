package metrics

import (
	"sync"
	"sync/atomic"
)

// MetricKey is a strongly typed metric identifier.
type MetricKey string

// Metric keys (centralized)
const (
	// Store
	StoreKeysTotal         MetricKey = "store_keys_total"
	StoreSetsTotal         MetricKey = "store_sets_total"
	StoreGetsTotal         MetricKey = "store_gets_total"
	StoreMissesTotal       MetricKey = "store_misses_total"
	StoreExpiredReadsTotal MetricKey = "store_expired_reads_total"
	StoreRemovesTotal      MetricKey = "store_removes_total"

	// Range scans
	ScanRequestsTotal       MetricKey = "scan_requests_total"
	ScanReturnedTotal       MetricKey = "scan_returned_total"
	ScanExpiredSkippedTotal MetricKey = "scan_expired_skipped_total"

	// Reclamation
	ReclaimRemovedTotal MetricKey = "reclaim_removed_total"
	SweepRunsTotal      MetricKey = "sweep_runs_total"
	SweepRemovedTotal   MetricKey = "sweep_removed_total"
)

// Registry stores all metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[MetricKey]*int64
}

// NewRegistry creates a metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[MetricKey]*int64),
	}
}

// Inc increments a metric by 1.
func (r *Registry) Inc(key MetricKey) {
	r.Add(key, 1)
}

// Add increments a metric by delta.
func (r *Registry) Add(key MetricKey, delta int64) {
	r.mu.RLock()
	ptr, ok := r.counters[key]
	r.mu.RUnlock()

	if ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	// Slow path: metric not yet initialized
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if ptr, ok = r.counters[key]; ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	var val int64
	r.counters[key] = &val
	atomic.AddInt64(&val, delta)
}
