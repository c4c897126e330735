package hedge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// racePollInterval bounds how long the waiter sleeps between readiness
// re-checks while two or more attempts are racing. The shared Token cannot
// identify which attempt signalled it, so after every wake the waiter
// re-polls each attempt and re-waits if none is ready. The initial
// single-attempt wait is not subject to this: it blocks for the full delay
// in one call.
const racePollInterval = 20 * time.Millisecond

// CallOption customises a single hedged call.
type CallOption[T any] func(*callOptions[T])

type callOptions[T any] struct {
	operation Operation
	discard   func(T)
}

// WithOperation tags the call with its operation kind for logs and
// metrics, and selects the matching delay when the call site reads its
// delay from a Config.
func WithOperation[T any](op Operation) CallOption[T] {
	return func(o *callOptions[T]) {
		o.operation = op
	}
}

// WithDiscard registers a cleanup for results produced by losing attempts.
//
// When a hedged operation allocates a resource (e.g. a hedged open
// produces a file handle), the caller only ever sees the winner's result;
// the discard hook receives each loser's successful result once that loser
// eventually finishes inside the tracker, so the resource can be released.
func WithDiscard[T any](discard func(T)) CallOption[T] {
	return func(o *callOptions[T]) {
		o.discard = discard
	}
}

// Do runs work with hedging.
//
// One attempt is dispatched immediately. If it has not completed after
// delay, a second identical attempt is dispatched and raced against it;
// the policy repeats (one more attempt per further delay) until the
// tracker's configured MaxHedgedRequests attempts are in flight or one
// finishes. The first attempt to finish produces the returned result,
// success or failure, exactly as if no hedging had occurred. Losing
// attempts are handed to the tracker and run to completion in the
// background; Do never blocks on them.
//
// work must be safe to execute multiple times concurrently. It is never
// cancelled: ctx is used for telemetry only, and a work closure that needs
// a context should capture a detached one.
//
// A delay of zero races the first hedge against the primary from the
// start.
func Do[T any](ctx context.Context, work func() (T, error), delay time.Duration, tracker *Tracker, opts ...CallOption[T]) (T, error) {
	var zero T
	if work == nil {
		return zero, ErrNilWork
	}
	if tracker == nil {
		return zero, ErrNilTracker
	}
	if delay < 0 {
		return zero, fmt.Errorf("%w: %v", ErrNegativeDelay, delay)
	}

	o := callOptions[T]{operation: -1}
	for _, opt := range opts {
		opt(&o)
	}

	// One consistent snapshot for the whole call; concurrent configuration
	// updates only affect later calls.
	maxAttempts := tracker.Config().MaxHedgedRequests
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	start := time.Now()
	token := NewToken()
	attempts := []*Task[T]{Start(work, token)}
	tracker.metrics.recordAttempt(ctx, o.operation)

	// Fast path: block for the full delay in one call. Only the primary
	// exists, so a signal means it finished.
	if token.Wait(delay) {
		value, err := attempts[0].Get()
		tracker.metrics.recordResolved(ctx, o.operation, 0, 1, time.Since(start))
		return value, err
	}
	if maxAttempts == 1 {
		value, err := attempts[0].Get()
		tracker.metrics.recordResolved(ctx, o.operation, 0, 1, time.Since(start))
		return value, err
	}

	// The primary is still running past its threshold: start racing.
	callID := uuid.NewString()
	logger := tracker.logger.With().
		Str("call_id", callID).
		Stringer("operation", o.operation).
		Logger()

	lastSpawn := start
	for {
		if idx := readyIndex(attempts); idx >= 0 {
			return resolve(ctx, tracker, attempts, idx, &o, logger, start)
		}

		if len(attempts) < maxAttempts && time.Since(lastSpawn) >= delay {
			attempts = append(attempts, Start(work, token))
			lastSpawn = time.Now()
			tracker.metrics.recordAttempt(ctx, o.operation)
			hedgeStarted(ctx, logger, o.operation, len(attempts), delay)
			// Re-check readiness before sleeping; the new attempt may have
			// finished already for a zero delay.
			continue
		}

		// Nothing ready: clear any spurious signal from an attempt we
		// already inspected, then wait for the next completion. The wait
		// is bounded so a signal lost between the readiness scan and the
		// reset only costs one poll interval.
		token.Reset()
		wait := racePollInterval
		if len(attempts) < maxAttempts {
			if until := delay - time.Since(lastSpawn); until < wait {
				wait = until
			}
		}
		if wait <= 0 {
			wait = time.Millisecond
		}
		token.Wait(wait)
	}
}

// readyIndex returns the index of the first finished attempt, or -1.
func readyIndex[T any](attempts []*Task[T]) int {
	for i, task := range attempts {
		if task.Ready() {
			return i
		}
	}
	return -1
}

// resolve consumes the winner's result and transfers every loser to the
// tracker.
func resolve[T any](ctx context.Context, tracker *Tracker, attempts []*Task[T], winner int, o *callOptions[T], logger zerolog.Logger, start time.Time) (T, error) {
	for i, task := range attempts {
		if i == winner {
			continue
		}
		tracker.AddPending(&loserTask[T]{
			task:      task,
			operation: o.operation,
			discard:   o.discard,
			logger:    tracker.logger,
		})
	}

	value, err := attempts[winner].Get()
	elapsed := time.Since(start)
	tracker.metrics.recordResolved(ctx, o.operation, winner, len(attempts), elapsed)

	logger.Debug().
		Int("winner_attempt", winner).
		Int("attempts", len(attempts)).
		Dur("elapsed", elapsed).
		Err(err).
		Msg("hedged call resolved")

	return value, err
}

// hedgeStarted emits the log event and span event for a newly dispatched
// hedge.
func hedgeStarted(ctx context.Context, logger zerolog.Logger, op Operation, attempts int, delay time.Duration) {
	logger.Debug().
		Int("attempts", attempts).
		Dur("delay", delay).
		Msg("hedge attempt started")

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		attrs := []attribute.KeyValue{
			attribute.Int("hedge.attempts", attempts),
		}
		if op.Valid() {
			attrs = append(attrs, attribute.String("hedge.operation", op.String()))
		}
		span.AddEvent("hedge.attempt.started", trace.WithAttributes(attrs...))
	}
}
