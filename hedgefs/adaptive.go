package hedgefs

import (
	"time"

	"github.com/kroma-labs/hedgefs-go/hedge"
)

// AdaptiveConfig configures adaptive hedging delays.
//
// Adaptive hedging calculates the per-operation delay from historical
// latency samples instead of the static delay table, eliminating the need
// to hand-tune P95 values per backend. Until an operation has MinSamples
// recorded calls, the static table's delay applies.
type AdaptiveConfig struct {
	// TargetPercentile is the latency percentile to hedge after (0-1).
	// For example, 0.95 hedges once a call exceeds its P95 latency.
	//
	// Default: 0.95
	TargetPercentile float64

	// WindowSize is the number of latency samples kept per operation.
	// Larger windows give more stable estimates but adapt more slowly.
	//
	// Default: 100
	WindowSize int

	// MinSamples is the minimum number of samples required before the
	// adaptive delay kicks in for an operation.
	//
	// Default: 10
	MinSamples int

	// Tracker is the latency tracker to use. If nil, a private one is
	// created from WindowSize and MinSamples. Supplying a tracker lets
	// several filesystems share latency history.
	Tracker *hedge.LatencyTracker
}

// DefaultAdaptiveConfig returns reasonable defaults for adaptive delays.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		TargetPercentile: 0.95,
		WindowSize:       100,
		MinSamples:       10,
	}
}

// adaptiveDelays feeds call latencies into a LatencyTracker and answers
// delay lookups from it.
type adaptiveDelays struct {
	percentile float64
	tracker    *hedge.LatencyTracker
}

func newAdaptiveDelays(cfg AdaptiveConfig) *adaptiveDelays {
	percentile := cfg.TargetPercentile
	if percentile <= 0 || percentile > 1 {
		percentile = 0.95
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = hedge.NewLatencyTracker(cfg.WindowSize, cfg.MinSamples)
	}
	return &adaptiveDelays{
		percentile: percentile,
		tracker:    tracker,
	}
}

func (a *adaptiveDelays) record(op hedge.Operation, latency time.Duration) {
	a.tracker.Record(op, latency)
}

func (a *adaptiveDelays) delay(op hedge.Operation) (time.Duration, bool) {
	return a.tracker.Percentile(op, a.percentile)
}
