package hedge

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker records call latencies per operation kind for adaptive
// hedging-delay calculation.
//
// It maintains a sliding window of latency samples per operation and can
// calculate approximate percentiles (e.g. P95) to use as the hedging
// delay, removing the need to hand-tune the delay table.
//
// The tracker is safe for concurrent use.
type LatencyTracker struct {
	mu         sync.RWMutex
	windows    [numOperations]*latencyWindow
	windowSize int
	minSamples int
}

// latencyWindow holds a circular buffer of latency samples.
type latencyWindow struct {
	samples []time.Duration
	head    int
	count   int
}

// NewLatencyTracker creates a latency tracker.
//
// windowSize determines how many samples are kept per operation.
// minSamples is the minimum number of samples required before percentile
// calculation kicks in. Non-positive values fall back to 100 and 10.
func NewLatencyTracker(windowSize, minSamples int) *LatencyTracker {
	if windowSize <= 0 {
		windowSize = 100
	}
	if minSamples <= 0 {
		minSamples = 10
	}
	return &LatencyTracker{
		windowSize: windowSize,
		minSamples: minSamples,
	}
}

// Record adds a latency sample for the given operation. Samples for
// operations outside the enumeration are dropped.
func (t *LatencyTracker) Record(op Operation, latency time.Duration) {
	if !op.Valid() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	window := t.windows[op]
	if window == nil {
		window = &latencyWindow{samples: make([]time.Duration, t.windowSize)}
		t.windows[op] = window
	}

	window.samples[window.head] = latency
	window.head = (window.head + 1) % t.windowSize
	if window.count < t.windowSize {
		window.count++
	}
}

// Percentile returns the approximate percentile latency for an operation.
//
// p should be between 0 and 1 (e.g. 0.95 for P95). Returns false while
// fewer than minSamples samples have been recorded.
func (t *LatencyTracker) Percentile(op Operation, p float64) (time.Duration, bool) {
	if !op.Valid() {
		return 0, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	window := t.windows[op]
	if window == nil || window.count < t.minSamples {
		return 0, false
	}

	// Copy samples for sorting (avoid modifying the circular buffer)
	samples := make([]time.Duration, window.count)
	copy(samples, window.samples[:window.count])
	sort.Slice(samples, func(i, j int) bool {
		return samples[i] < samples[j]
	})

	idx := int(float64(len(samples)-1) * p)
	if idx >= len(samples) {
		idx = len(samples) - 1
	}

	return samples[idx], true
}

// Count returns the number of samples recorded for an operation.
func (t *LatencyTracker) Count(op Operation) int {
	if !op.Valid() {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	window := t.windows[op]
	if window == nil {
		return 0
	}
	return window.count
}

// Reset clears all recorded samples.
func (t *LatencyTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.windows = [numOperations]*latencyWindow{}
}
