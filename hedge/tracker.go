package hedge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PendingTask is a race loser owned by a Tracker until it finishes.
//
// Losers are type-erased: the caller already holds an authoritative result
// from the winner, so all the Tracker needs from a loser is whether it has
// finished and the ability to block until it does.
type PendingTask interface {
	// Ready reports whether the task has finished, without blocking.
	Ready() bool

	// Wait blocks until the task has finished.
	Wait()

	// Release runs the task's after-completion cleanup. The Tracker calls
	// it exactly once, after the task has finished, when dropping the task
	// from the pending set.
	Release()
}

// loserTask adapts a lost Task for tracking. Its value is discarded (or
// handed to a discard hook, e.g. to close a file handle the caller will
// never see) and its error is logged at most.
type loserTask[T any] struct {
	task      *Task[T]
	operation Operation
	discard   func(T)
	logger    zerolog.Logger
}

func (l *loserTask[T]) Ready() bool { return l.task.Ready() }
func (l *loserTask[T]) Wait()       { l.task.Wait() }

func (l *loserTask[T]) Release() {
	value, err := l.task.Get()
	if err != nil {
		// The caller already has the winner's result; a loser's failure
		// can never reach anyone and is diagnostics only.
		l.logger.Debug().
			Err(err).
			Stringer("operation", l.operation).
			Msg("losing attempt failed")
		return
	}
	if l.discard != nil {
		l.discard(value)
	}
}

// Tracker owns race losers until they finish and carries the live hedging
// configuration.
//
// A Tracker is meant to be shared across all hedged calls within one
// session or connection scope. Every call that produces a loser registers
// it here; already-finished entries are pruned opportunistically on each
// add, and Close (or WaitAll) blocks until every outstanding loser has
// finished so no background work outlives the owning scope.
type Tracker struct {
	mu      sync.Mutex
	pending []PendingTask
	config  Config

	logger  zerolog.Logger
	metrics *metrics
}

// NewTracker creates a Tracker with the default configuration. Use
// WithTrackerConfig, WithLogger and WithMeterProvider to customise it.
func NewTracker(opts ...TrackerOption) (*Tracker, error) {
	o := defaultTrackerOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	m, err := newMetrics(o.meterProvider.Meter(scope))
	if err != nil {
		return nil, fmt.Errorf("hedge: failed to create metrics: %w", err)
	}

	return &Tracker{
		config:  o.config,
		logger:  o.logger,
		metrics: m,
	}, nil
}

// AddPending transfers ownership of a task to the tracker. The task keeps
// running in the background; the tracker guarantees it is waited on before
// Close returns. Adding also sweeps out entries that already finished, so
// the pending set stays bounded across many hedged calls.
func (t *Tracker) AddPending(p PendingTask) {
	if p == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, p)
	t.metrics.addPending(context.Background(), 1)
	t.cleanupLocked()
}

// cleanupLocked drops tasks that already finished, releasing each exactly
// once. Non-blocking: unfinished tasks are left in place.
func (t *Tracker) cleanupLocked() {
	kept := t.pending[:0]
	for _, p := range t.pending {
		if p.Ready() {
			p.Release()
			t.metrics.addPending(context.Background(), -1)
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(t.pending); i++ {
		t.pending[i] = nil
	}
	t.pending = kept
}

// WaitAll blocks until every currently tracked task has finished, then
// clears the set. Called on teardown to guarantee no background work
// outlives the owning scope; callers must not assume it returns
// instantly, since straggling attempts are never cancelled.
func (t *Tracker) WaitAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.pending {
		p.Wait()
		p.Release()
		t.metrics.addPending(context.Background(), -1)
	}
	t.pending = nil
}

// Close drains the tracker. It implements io.Closer so it can sit in a
// defer chain; it never returns an error.
func (t *Tracker) Close() error {
	t.WaitAll()
	return nil
}

// Len reports how many losers are currently tracked. Finished but not yet
// swept entries count until the next add or WaitAll.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Config returns a consistent snapshot of the hedging configuration.
// Hedged calls take one snapshot at call start and never re-read it, so a
// concurrent update never changes the behavior of an in-flight call.
func (t *Tracker) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config
}

// SetConfig replaces the whole configuration. On validation failure the
// previous configuration is left unchanged.
func (t *Tracker) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.config = cfg
	return nil
}

// UpdateDelay sets the hedging delay for a single operation kind.
func (t *Tracker) UpdateDelay(op Operation, delay time.Duration) error {
	if !op.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	if delay < 0 {
		return fmt.Errorf("%w: %v for %s", ErrNegativeDelay, delay, op)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.config.Delays[op] = delay
	return nil
}

// UpdateMaxHedgedRequests sets the maximum number of concurrently racing
// attempts per call, including the primary.
func (t *Tracker) UpdateMaxHedgedRequests(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxHedgedRequests, n)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.config.MaxHedgedRequests = n
	return nil
}
