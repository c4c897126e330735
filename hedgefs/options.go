package hedgefs

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/kroma-labs/hedgefs-go/hedge"
)

// options holds the configuration applied by Option values.
type options struct {
	tracker        *hedge.Tracker
	trackerOptions []hedge.TrackerOption
	logger         zerolog.Logger
	adaptive       *AdaptiveConfig
	coalesce       bool
}

func defaultOptions() options {
	return options{
		logger: zerolog.Nop(),
	}
}

// Option configures a HedgedFS.
type Option func(*options)

// WithTracker shares an existing tracker, scoping the pending-request set
// and the hedging configuration to the caller's session. When several
// hedged filesystems belong to one session they should share one tracker
// so teardown drains everything in one place.
//
// Takes precedence over WithConfig and WithMeterProvider, which only
// apply to an internally built tracker.
func WithTracker(tracker *hedge.Tracker) Option {
	return func(o *options) {
		o.tracker = tracker
	}
}

// WithConfig sets the initial hedging configuration for the internally
// built tracker.
func WithConfig(cfg hedge.Config) Option {
	return func(o *options) {
		o.trackerOptions = append(o.trackerOptions, hedge.WithTrackerConfig(cfg))
	}
}

// WithLogger sets the logger for the filesystem and, when no tracker is
// supplied, the internally built tracker. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
		o.trackerOptions = append(o.trackerOptions, hedge.WithLogger(logger))
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for the
// internally built tracker's hedge metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.trackerOptions = append(o.trackerOptions, hedge.WithMeterProvider(mp))
	}
}

// WithAdaptiveDelays derives each operation's hedging delay from its
// observed latency percentile instead of the static delay table. Until an
// operation has enough samples, the table's delay is used.
func WithAdaptiveDelays(cfg AdaptiveConfig) Option {
	return func(o *options) {
		o.adaptive = &cfg
	}
}

// WithCoalescing deduplicates concurrent identical read-only metadata
// calls (same operation and path) so only one of them reaches the backing
// filesystem. Open calls are never coalesced; every caller needs its own
// handle.
func WithCoalescing() Option {
	return func(o *options) {
		o.coalesce = true
	}
}
