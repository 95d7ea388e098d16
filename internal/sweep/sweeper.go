package sweep

import (
	"context"
	"time"

	"kvstorage/internal/logs"
	"kvstorage/internal/metrics"
)

// Store defines the minimal contract required by the sweeper.
// This keeps the sweeper decoupled from the concrete store implementation.
type Store interface {
	RemoveOneExpiredEntry() (key, value string, ok bool)
}

// Config controls sweep cadence and per-tick work.
//
// MaxPerRun bounds how many records a single tick may reclaim;
// zero or negative means "drain until the store reports nothing expired".
type Config struct {
	Interval  time.Duration
	MaxPerRun int
}

// Sweeper periodically reclaims expired records from the store.
//
// The store itself only exposes a one-record-at-a-time primitive, which
// bounds its lock-hold time; the sweeper is the caller that schedules
// repeated invocations of it.
type Sweeper struct {
	store   Store
	cfg     Config
	logger  *logs.Logger
	metrics *metrics.Registry
}

// New creates a new Sweeper.
func New(
	store Store,
	cfg Config,
	logger *logs.Logger,
	reg *metrics.Registry,
) *Sweeper {
	return &Sweeper{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		metrics: reg,
	}
}

// Start runs the sweep loop until the context is cancelled.
// It blocks and should typically be run in a separate goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-ctx.Done():
			s.logger.Debug("sweeper stopped")
			return
		}
	}
}

// runOnce reclaims expired records until the store runs dry or the
// per-run budget is spent, and returns how many were removed.
func (s *Sweeper) runOnce() int {
	s.metrics.Inc(metrics.SweepRunsTotal)

	removed := 0
	for s.cfg.MaxPerRun <= 0 || removed < s.cfg.MaxPerRun {
		if _, _, ok := s.store.RemoveOneExpiredEntry(); !ok {
			break
		}
		removed++
	}

	if removed > 0 {
		s.metrics.Add(metrics.SweepRemovedTotal, int64(removed))
		s.logger.Infof("sweeper reclaimed %d expired records", removed)
	}
	return removed
}
