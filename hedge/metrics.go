package hedge

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/hedgefs-go/hedge"
)

// metrics holds the metric instruments for hedged calls.
type metrics struct {
	// callDuration measures the wall-clock duration of hedged calls in
	// seconds. With hedging this is bounded by the fastest attempt, not
	// the sum of all attempts.
	callDuration metric.Float64Histogram

	// attempts counts dispatched attempts, primary and hedges alike.
	attempts metric.Int64Counter

	// hedgedCalls counts calls that started at least one hedge.
	// Compare against callsTotal to see the hedge rate.
	hedgedCalls metric.Int64Counter

	// callsTotal counts all hedged-capable calls.
	callsTotal metric.Int64Counter

	// wins counts resolved calls by the attempt index that produced the
	// returned result (0 = primary).
	wins metric.Int64Counter

	// pendingTasks tracks the number of losers currently owned by the
	// tracker. A persistently high value indicates a slow backend.
	pendingTasks metric.Int64UpDownCounter
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.callDuration, err = meter.Float64Histogram(
		"hedge.call.duration",
		metric.WithDescription("Duration of hedged calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.attempts, err = meter.Int64Counter(
		"hedge.attempts",
		metric.WithDescription("Number of dispatched attempts, including primaries"),
	)
	if err != nil {
		return nil, err
	}

	m.hedgedCalls, err = meter.Int64Counter(
		"hedge.calls.hedged",
		metric.WithDescription("Number of calls that started at least one hedge"),
	)
	if err != nil {
		return nil, err
	}

	m.callsTotal, err = meter.Int64Counter(
		"hedge.calls.total",
		metric.WithDescription("Total number of hedged-capable calls"),
	)
	if err != nil {
		return nil, err
	}

	m.wins, err = meter.Int64Counter(
		"hedge.wins",
		metric.WithDescription("Resolved calls by winning attempt index"),
	)
	if err != nil {
		return nil, err
	}

	m.pendingTasks, err = meter.Int64UpDownCounter(
		"hedge.pending.tasks",
		metric.WithDescription("Losing attempts still running in the background"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// operationAttr builds the operation attribute, omitted for untagged calls.
func operationAttr(op Operation) []attribute.KeyValue {
	if !op.Valid() {
		return nil
	}
	return []attribute.KeyValue{attribute.String("hedge.operation", op.String())}
}

// recordAttempt records the dispatch of one attempt.
func (m *metrics) recordAttempt(ctx context.Context, op Operation) {
	if m == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(operationAttr(op)...))
}

// recordResolved records the resolution of a call: its duration, how many
// attempts were dispatched and which attempt won.
func (m *metrics) recordResolved(ctx context.Context, op Operation, winner, attempts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := operationAttr(op)
	m.callsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if attempts > 1 {
		m.hedgedCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.wins.Add(ctx, 1, metric.WithAttributes(append(attrs,
		attribute.Int("hedge.winner_attempt", winner))...))
	m.callDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// addPending adjusts the pending-task gauge.
func (m *metrics) addPending(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.pendingTasks.Add(ctx, delta)
}
