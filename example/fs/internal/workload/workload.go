package workload

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/hedgefs-go/example/fs/internal/config"
	"github.com/kroma-labs/hedgefs-go/hedge"
	"github.com/kroma-labs/hedgefs-go/hedgefs"
)

// Workload drives a hedged filesystem over a chaos-injected local backend.
// The chaos layer simulates the latency spikes and sporadic errors of a
// remote object store; the hedged layer races duplicates against them.
type Workload struct {
	fs     *hedgefs.HedgedFS
	chaos  *hedgefs.ChaosFS
	root   string
	logger zerolog.Logger
}

// New seeds a directory of sample files and stacks the filesystems:
// local disk at the bottom, chaos injection in the middle, hedging on top.
func New(logger zerolog.Logger) (*Workload, error) {
	root, err := os.MkdirTemp("", "hedgefs-example-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workload dir: %w", err)
	}
	if err := seedFiles(root); err != nil {
		os.RemoveAll(root)
		return nil, err
	}

	chaos := hedgefs.NewChaosFS(hedgefs.NewLocal(), hedgefs.ChaosConfig{
		Latency:       config.DefaultChaosLatency * time.Millisecond,
		LatencyJitter: config.DefaultChaosJitter * time.Millisecond,
		ErrorRate:     config.DefaultErrorRate,
	})

	cfg, err := loadConfig()
	if err != nil {
		os.RemoveAll(root)
		return nil, err
	}

	fs, err := hedgefs.New(chaos,
		hedgefs.WithConfig(cfg),
		hedgefs.WithLogger(logger),
		hedgefs.WithCoalescing(),
		hedgefs.WithAdaptiveDelays(hedgefs.AdaptiveConfig{
			TargetPercentile: config.AdaptivePercentile,
		}),
	)
	if err != nil {
		os.RemoveAll(root)
		return nil, err
	}

	return &Workload{fs: fs, chaos: chaos, root: root, logger: logger}, nil
}

// loadConfig reads the JSON delay table named by HEDGEFS_DELAYS, falling
// back to built-in defaults when the variable is unset.
func loadConfig() (hedge.Config, error) {
	if path := os.Getenv(config.DelayTableEnvVar); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return hedge.Config{}, fmt.Errorf("failed to read delay table: %w", err)
		}
		return hedge.ParseConfig(data)
	}

	cfg := hedge.DefaultConfig()
	for _, op := range hedge.Operations() {
		cfg.Delays[op] = config.DefaultHedgeDelay * time.Millisecond
	}
	cfg.MaxHedgedRequests = config.DefaultMaxHedged
	return cfg, nil
}

func seedFiles(root string) error {
	for i := 0; i < config.DefaultFileCount; i++ {
		data := make([]byte, config.DefaultFileSize)
		for j := range data {
			data[j] = byte(rand.Intn(256))
		}
		name := filepath.Join(root, fmt.Sprintf("part-%03d.bin", i))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return fmt.Errorf("failed to seed %s: %w", name, err)
		}
	}
	return nil
}

// ScanDirectory lists and globs the workload directory.
func (w *Workload) ScanDirectory(ctx context.Context) error {
	entries, err := w.fs.ListFiles(ctx, w.root)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	matches, err := w.fs.Glob(ctx, filepath.Join(w.root, "*.bin"))
	if err != nil {
		return fmt.Errorf("glob failed: %w", err)
	}

	w.logger.Info().
		Int("entries", len(entries)).
		Int("matches", len(matches)).
		Msg("scanned workload directory")
	return nil
}

// StatFiles probes metadata for a random subset of the seeded files.
func (w *Workload) StatFiles(ctx context.Context) error {
	for i := 0; i < 3; i++ {
		path := w.randomFile()

		exists, err := w.fs.FileExists(ctx, path)
		if err != nil {
			return fmt.Errorf("exists failed: %w", err)
		}
		size, err := w.fs.FileSize(ctx, path)
		if err != nil {
			return fmt.Errorf("size failed: %w", err)
		}
		mtime, err := w.fs.LastModified(ctx, path)
		if err != nil {
			return fmt.Errorf("mtime failed: %w", err)
		}

		w.logger.Info().
			Str("path", filepath.Base(path)).
			Bool("exists", exists).
			Int64("size", size).
			Time("mtime", mtime).
			Msg("stat")
	}
	return nil
}

// ReadSample opens a random file through the hedged stack and reads it.
func (w *Workload) ReadSample(ctx context.Context) error {
	path := w.randomFile()

	f, err := w.fs.OpenFile(ctx, path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open failed: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(io.Discard, f)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}

	w.logger.Info().
		Str("path", filepath.Base(path)).
		Int64("bytes", n).
		Msg("read sample file")
	return nil
}

// ReportHedging logs per-operation backend call counters, which exceed the
// logical call count whenever hedging fired.
func (w *Workload) ReportHedging() {
	ev := w.logger.Info()
	for _, op := range hedge.Operations() {
		if n := w.chaos.CallCount(op); n > 0 {
			ev = ev.Int64(op.String(), n)
		}
	}
	ev.Int("pending_losers", w.fs.Tracker().Len()).Msg("backend call counters")
}

func (w *Workload) randomFile() string {
	return filepath.Join(w.root, fmt.Sprintf("part-%03d.bin", rand.Intn(config.DefaultFileCount)))
}

// Close drains in-flight losing attempts and removes the seeded files.
func (w *Workload) Close() error {
	err := w.fs.Close()
	if rmErr := os.RemoveAll(w.root); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
