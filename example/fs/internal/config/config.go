package config

const (
	// Workload configuration
	DefaultFileCount    = 20
	DefaultFileSize     = 4096 // bytes per sample file
	DefaultChaosLatency = 200  // milliseconds of injected backend latency
	DefaultChaosJitter  = 150  // milliseconds of latency jitter
	DefaultErrorRate    = 0.02 // fraction of injected backend errors

	// Hedging configuration
	DefaultHedgeDelay  = 100 // milliseconds before a hedge attempt starts
	DefaultMaxHedged   = 3
	DelayTableEnvVar   = "HEDGEFS_DELAYS" // path to a JSON delay table
	AdaptivePercentile = 0.95

	// Server configuration
	MetricsPort = ":2112"

	// OpenTelemetry configuration
	OTLPEndpoint   = "localhost:4317"
	ServiceName    = "hedgefs-example"
	ServiceVersion = "0.1.0"

	// Operation intervals
	OperationInterval = 5 // seconds
)
