// Package hedge implements hedged requests for tail-latency reduction.
//
// A hedged request dispatches an operation to a primary worker and, if the
// primary has not completed within a configurable per-operation delay,
// dispatches a second identical attempt concurrently. Whichever attempt
// finishes first produces the result; losing attempts are never cancelled
// (they may be mid-flight against a remote backend) and are handed to a
// Tracker that owns them until they finish, so a process can always shut
// down cleanly.
//
// This technique is based on Google's "The Tail at Scale" paper: a small
// number of duplicate requests can dramatically reduce 99th percentile
// latency when a backend is occasionally slow.
//
// # Quick Start
//
//	tracker, err := hedge.NewTracker()
//	if err != nil {
//	    return err
//	}
//	defer tracker.Close() // blocks until all losing attempts finish
//
//	cfg := tracker.Config()
//	delay, _ := cfg.Delay(hedge.OpFileExists)
//
//	exists, err := hedge.Do(ctx, func() (bool, error) {
//	    return backend.FileExists(path)
//	}, delay, tracker, hedge.WithOperation[bool](hedge.OpFileExists))
//
// # Semantics
//
//   - The work function must be safe to execute twice concurrently: hedging
//     races two (or more) identical invocations and keeps the first to
//     finish. Do not hedge non-idempotent operations.
//   - An error from the winning attempt is returned to the caller exactly
//     as if no hedging had occurred. An error from a losing attempt is
//     swallowed (logged at debug level at most) once it eventually
//     completes inside the Tracker.
//   - There is no cancellation and no retry. The delay only gates when a
//     hedge is added; it never aborts the primary. A failed winning attempt
//     is a failed call.
//
// # Configuration
//
// Each Tracker carries a live Config: a delay per operation kind plus the
// maximum number of concurrently racing attempts. Calls snapshot the
// configuration once at start, so a concurrent update never changes the
// behavior of an in-flight call:
//
//	cfg := hedge.DefaultConfig()
//	cfg.Delays[hedge.OpGlob] = 2 * time.Second
//	cfg.MaxHedgedRequests = 2
//
//	tracker, err := hedge.NewTracker(hedge.WithTrackerConfig(cfg))
//
// Individual fields can also be updated on a running tracker with
// UpdateDelay and UpdateMaxHedgedRequests.
//
// # Observability
//
// The package emits OpenTelemetry metrics (attempt counts, wins by attempt
// index, pending-task gauge, call duration) through the meter provider
// passed via WithMeterProvider, and structured zerolog events for hedge
// starts, resolutions and swallowed loser failures.
package hedge
