package health

import "kvstorage/internal/metrics"

// RuleResult represents the outcome of a single rule.
type RuleResult struct {
	Triggered      bool
	Signal         string
	Recommendation string
	Severity       Status
}

// Rule evaluates a metrics snapshot.
type Rule func(snapshot map[string]int64) RuleResult

// ---------- RULES ----------

// ExpiredBacklogRule fires when readers keep tripping over expired
// records that reclamation never collected.
func ExpiredBacklogRule(snapshot map[string]int64) RuleResult {
	expired := snapshot[string(metrics.StoreExpiredReadsTotal)] +
		snapshot[string(metrics.ScanExpiredSkippedTotal)]
	reclaimed := snapshot[string(metrics.ReclaimRemovedTotal)]

	if expired >= 10 && reclaimed == 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Reads keep hitting expired records that were never reclaimed",
			Recommendation: "Run the sweeper, or shorten its interval, so expired records get collected",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// MissRatioRule flags read patterns where most lookups find nothing.
func MissRatioRule(snapshot map[string]int64) RuleResult {
	gets := snapshot[string(metrics.StoreGetsTotal)]
	misses := snapshot[string(metrics.StoreMissesTotal)]

	if gets >= 100 && misses*2 > gets {
		return RuleResult{
			Triggered:      true,
			Signal:         "More than half of all reads miss",
			Recommendation: "Check key construction on the read path; callers may be reading keys that were never written",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// ExpiryChurnRule flags workloads where most written records expire
// before anything reads them back.
func ExpiryChurnRule(snapshot map[string]int64) RuleResult {
	sets := snapshot[string(metrics.StoreSetsTotal)]
	reclaimed := snapshot[string(metrics.ReclaimRemovedTotal)]

	if sets >= 100 && reclaimed*2 > sets {
		return RuleResult{
			Triggered:      true,
			Signal:         "Most written records expire unread",
			Recommendation: "Review TTL choices; they may be shorter than the read cycle they serve",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}
