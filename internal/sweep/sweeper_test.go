package sweep

import (
	"context"
	"sync"
	"testing"
	"time"

	"kvstorage/internal/logs"
	"kvstorage/internal/metrics"

	"github.com/stretchr/testify/assert"
)

/* ---------------- Mock Store ---------------- */

type mockStore struct {
	mu      sync.Mutex
	pending []string
	calls   int
}

func (m *mockStore) RemoveOneExpiredEntry() (string, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if len(m.pending) == 0 {
		return "", "", false
	}
	key := m.pending[0]
	m.pending = m.pending[1:]
	return key, "value", true
}

func (m *mockStore) remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

/* ---------------- Tests ---------------- */

func TestSweeper_RunOnce_DrainsExpiredAndUpdatesMetrics(t *testing.T) {
	store := &mockStore{pending: []string{"a", "b", "c"}}
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	sweeper := New(store, Config{Interval: time.Second}, logger, reg)

	removed := sweeper.runOnce()

	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, store.remaining())

	snap := reg.Snapshot()
	assert.Equal(t, int64(1), snap[string(metrics.SweepRunsTotal)])
	assert.Equal(t, int64(3), snap[string(metrics.SweepRemovedTotal)])
}

func TestSweeper_RunOnce_NothingExpired(t *testing.T) {
	store := &mockStore{}
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	sweeper := New(store, Config{Interval: time.Second}, logger, reg)

	removed := sweeper.runOnce()

	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, store.calls, "one probing call is enough when nothing is expired")

	snap := reg.Snapshot()
	assert.Equal(t, int64(1), snap[string(metrics.SweepRunsTotal)])
	assert.Equal(t, int64(0), snap[string(metrics.SweepRemovedTotal)])
}

func TestSweeper_RunOnce_RespectsBudget(t *testing.T) {
	store := &mockStore{pending: []string{"a", "b", "c", "d", "e"}}
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	sweeper := New(store, Config{Interval: time.Second, MaxPerRun: 2}, logger, reg)

	assert.Equal(t, 2, sweeper.runOnce())
	assert.Equal(t, 3, store.remaining(), "budget caps how much one tick may reclaim")

	assert.Equal(t, 2, sweeper.runOnce())
	assert.Equal(t, 1, sweeper.runOnce())
	assert.Equal(t, 0, store.remaining())
}

func TestSweeper_Start_RunsPeriodically(t *testing.T) {
	store := &mockStore{}
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	sweeper := New(store, Config{Interval: 5 * time.Millisecond}, logger, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sweeper.Start(ctx)

	assert.Eventually(t, func() bool {
		snap := reg.Snapshot()
		return snap[string(metrics.SweepRunsTotal)] >= 2
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestSweeper_Start_StopsOnContextCancel(t *testing.T) {
	store := &mockStore{}
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(10, logs.DEBUG)

	sweeper := New(store, Config{Interval: 5 * time.Millisecond}, logger, reg)

	ctx, cancel := context.WithCancel(context.Background())
	go sweeper.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	cancel()

	runsAtCancel := reg.Snapshot()[string(metrics.SweepRunsTotal)]

	time.Sleep(30 * time.Millisecond)
	runsAfter := reg.Snapshot()[string(metrics.SweepRunsTotal)]

	// Allow at most one extra tick due to race with ticker
	assert.LessOrEqual(t, runsAfter, runsAtCancel+1)
}
