package hedge

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Operation identifies a filesystem operation eligible for hedging.
//
// The enumeration is closed: each member carries its own configurable
// hedging delay, and configuration setters reject values outside it.
type Operation int

const (
	// OpOpenFile opens a file and returns a handle.
	OpOpenFile Operation = iota
	// OpGlob expands a glob pattern.
	OpGlob
	// OpFileExists checks whether a file exists.
	OpFileExists
	// OpDirectoryExists checks whether a directory exists.
	OpDirectoryExists
	// OpFileSize reads a file's size.
	OpFileSize
	// OpLastModified reads a file's modification time.
	OpLastModified
	// OpFileType reads a file's type.
	OpFileType
	// OpVersionTag reads a file's version tag (e.g. an object-store ETag).
	OpVersionTag
	// OpListFiles lists the entries of a directory.
	OpListFiles

	numOperations
)

var operationNames = [numOperations]string{
	OpOpenFile:        "open_file",
	OpGlob:            "glob",
	OpFileExists:      "file_exists",
	OpDirectoryExists: "directory_exists",
	OpFileSize:        "file_size",
	OpLastModified:    "last_modified",
	OpFileType:        "file_type",
	OpVersionTag:      "version_tag",
	OpListFiles:       "list_files",
}

// String returns the snake_case name of the operation, as used in metrics
// attributes, log fields and JSON configuration keys.
func (o Operation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("operation(%d)", int(o))
	}
	return operationNames[o]
}

// Valid reports whether o is a member of the operation enumeration.
func (o Operation) Valid() bool {
	return o >= 0 && o < numOperations
}

// Operations returns all operation kinds, in declaration order.
func Operations() []Operation {
	ops := make([]Operation, numOperations)
	for i := range ops {
		ops[i] = Operation(i)
	}
	return ops
}

// operationsByName maps JSON configuration keys back to operations.
var operationsByName = func() map[string]Operation {
	m := make(map[string]Operation, numOperations)
	for _, op := range Operations() {
		m[op.String()] = op
	}
	return m
}()

// Default hedging delays. Listing and glob operations touch many objects
// on remote backends, so they get a higher threshold.
const (
	defaultDelay            = 3000 * time.Millisecond
	defaultListDelay        = 5000 * time.Millisecond
	defaultMaxHedgedRequest = 3
)

// Config holds the hedging configuration for one Tracker.
//
// Config is a value type: reading it from a Tracker produces a consistent
// snapshot, and an in-flight hedged call never observes a concurrent
// update. Start from DefaultConfig and adjust fields as needed:
//
//	cfg := hedge.DefaultConfig()
//	cfg.Delays[hedge.OpGlob] = 2 * time.Second
//	cfg.MaxHedgedRequests = 2
type Config struct {
	// Delays is the per-operation delay before a hedge is started.
	//
	// The delay gates when a duplicate attempt is dispatched; it is not an
	// operation timeout and never aborts the primary. A delay of zero
	// races the hedge against the primary from the start.
	//
	// Recommended: set each delay near the P95 latency of the backend for
	// that operation. Too short wastes backend capacity on duplicates;
	// too long stops hedging from helping with tail latency.
	Delays [numOperations]time.Duration

	// MaxHedgedRequests is the maximum number of concurrently racing
	// attempts for one logical call, including the primary.
	//
	// After each further delay with no attempt finished, one more hedge is
	// dispatched, until this many are in flight or one finishes.
	//
	// Must be at least 1. A value of 1 disables hedging entirely.
	MaxHedgedRequests int
}

// DefaultConfig returns the default hedging configuration: 3s delay for
// open and stat-like operations, 5s for glob and directory listing, and at
// most 3 racing attempts.
func DefaultConfig() Config {
	cfg := Config{MaxHedgedRequests: defaultMaxHedgedRequest}
	for _, op := range Operations() {
		cfg.Delays[op] = defaultDelay
	}
	cfg.Delays[OpGlob] = defaultListDelay
	cfg.Delays[OpListFiles] = defaultListDelay
	return cfg
}

// Delay returns the hedging delay configured for op.
func (c Config) Delay(op Operation) (time.Duration, error) {
	if !op.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	return c.Delays[op], nil
}

// Validate checks the configuration invariants: every delay must be
// non-negative and MaxHedgedRequests at least 1.
func (c Config) Validate() error {
	for _, op := range Operations() {
		if c.Delays[op] < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeDelay, op)
		}
	}
	if c.MaxHedgedRequests < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxHedgedRequests, c.MaxHedgedRequests)
	}
	return nil
}

// configJSON is the wire form of Config. Delays are expressed in
// milliseconds, keyed by operation name.
type configJSON struct {
	DelaysMs          map[string]int64 `json:"delays_ms"`
	MaxHedgedRequests int              `json:"max_hedged_requests"`
}

// MarshalJSON encodes the configuration with millisecond delays keyed by
// operation name.
func (c Config) MarshalJSON() ([]byte, error) {
	out := configJSON{
		DelaysMs:          make(map[string]int64, numOperations),
		MaxHedgedRequests: c.MaxHedgedRequests,
	}
	for _, op := range Operations() {
		out.DelaysMs[op.String()] = c.Delays[op].Milliseconds()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a configuration produced by MarshalJSON. Absent
// fields keep their defaults; unknown operation names are rejected.
func (c *Config) UnmarshalJSON(data []byte) error {
	var in configJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	cfg := DefaultConfig()
	if in.MaxHedgedRequests != 0 {
		cfg.MaxHedgedRequests = in.MaxHedgedRequests
	}
	for name, ms := range in.DelaysMs {
		op, ok := operationsByName[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownOperation, name)
		}
		cfg.Delays[op] = time.Duration(ms) * time.Millisecond
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	*c = cfg
	return nil
}

// ParseConfig decodes and validates a JSON configuration document.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := cfg.UnmarshalJSON(data); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
