package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kvstorage/internal/clock"
	"kvstorage/internal/health"
	"kvstorage/internal/logs"
	"kvstorage/internal/metrics"
	"kvstorage/internal/store"
	"kvstorage/internal/sweep"
)

func main() {
	// Signal-aware root context owns the background sweeper.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger
	logger := logs.NewLogger(1000, logs.DEBUG)

	// Metrics
	registry := metrics.NewRegistry()

	// Store, bulk-loaded like any host would at startup
	kv := store.New([]store.SeedEntry{
		{Key: "alpha", Value: "1"},
		{Key: "beta", Value: "2", TTLSeconds: 2},
		{Key: "gamma", Value: "3"},
	}, clock.System(), registry)

	// Sweeper: the host schedules reclamation, the store only exposes
	// the one-step primitive.
	sweeper := sweep.New(kv, sweep.Config{
		Interval:  500 * time.Millisecond,
		MaxPerRun: 100,
	}, logger, registry)
	go sweeper.Start(ctx)

	log.Println("kvstorage demo starting")

	if v, ok := kv.Get("alpha"); ok {
		log.Printf("GET alpha = %q", v)
	}
	if v, ok := kv.Get("beta"); ok {
		log.Printf("GET beta = %q (expires in 2s)", v)
	}

	kv.Set("delta", "4", 0)
	for _, pair := range kv.GetManySorted("alpha", 10) {
		log.Printf("SCAN > alpha: %s = %q", pair.Key, pair.Value)
	}

	// Wait past beta's TTL plus a few sweep ticks.
	wait := time.NewTimer(3 * time.Second)
	defer wait.Stop()

	select {
	case <-ctx.Done():
		log.Println("received shutdown signal")
		return
	case <-wait.C:
	}

	if _, ok := kv.Get("beta"); !ok {
		log.Println("GET beta: missing (expired and swept)")
	}
	log.Printf("records left: %d", kv.Len())

	report := health.NewAnalyzer(registry, logger).Analyze()
	out, _ := json.MarshalIndent(report, "", "  ")
	log.Printf("health report:\n%s", out)
}
