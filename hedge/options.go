package hedge

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// trackerOptions holds the configuration applied by TrackerOption values.
type trackerOptions struct {
	config        Config
	logger        zerolog.Logger
	meterProvider metric.MeterProvider
}

func defaultTrackerOptions() trackerOptions {
	return trackerOptions{
		config:        DefaultConfig(),
		logger:        zerolog.Nop(),
		meterProvider: otel.GetMeterProvider(),
	}
}

// TrackerOption configures a Tracker.
type TrackerOption func(*trackerOptions)

// WithTrackerConfig sets the initial hedging configuration. The
// configuration is validated by NewTracker.
func WithTrackerConfig(cfg Config) TrackerOption {
	return func(o *trackerOptions) {
		o.config = cfg
	}
}

// WithLogger sets the logger for hedge-start, resolution and swallowed
// loser-failure events. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) TrackerOption {
	return func(o *trackerOptions) {
		o.logger = logger
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for hedge
// metrics. Defaults to the global provider; when no global provider is
// configured, a no-op meter is used (safe, but no metrics).
func WithMeterProvider(mp metric.MeterProvider) TrackerOption {
	return func(o *trackerOptions) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}
