package hedgefs

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kroma-labs/hedgefs-go/hedge"
)

// ErrChaosInjected is the simulated failure returned by a ChaosFS when its
// ErrorRate triggers.
var ErrChaosInjected = errors.New("chaos: simulated filesystem error")

// ChaosConfig configures fault injection for a ChaosFS.
//
// Chaos injection simulates a slow or unreliable backend in tests and
// demos so hedging behavior can be observed deterministically.
type ChaosConfig struct {
	// Latency adds a fixed delay to every operation.
	// Default: 0 (no added latency)
	Latency time.Duration

	// LatencyJitter adds random jitter in [0, LatencyJitter) on top of
	// Latency, creating more realistic latency patterns.
	// Default: 0 (no jitter)
	LatencyJitter time.Duration

	// ErrorRate is the probability (0.0-1.0) of failing an operation with
	// ErrChaosInjected instead of delegating it.
	// Default: 0.0 (no errors injected)
	ErrorRate float64
}

// delay returns the total delay to apply, including jitter.
func (c ChaosConfig) delay() time.Duration {
	d := c.Latency
	if c.LatencyJitter > 0 {
		d += time.Duration(rand.Int63n(int64(c.LatencyJitter))) //nolint:gosec
	}
	return d
}

// shouldInjectError reports whether an error should be injected.
func (c ChaosConfig) shouldInjectError() bool {
	if c.ErrorRate <= 0 {
		return false
	}
	return rand.Float64() < c.ErrorRate //nolint:gosec
}

// ChaosFS wraps a FileSystem with configurable latency and failure
// injection, and counts calls per operation kind so tests can assert how
// many attempts actually reached the backend.
type ChaosFS struct {
	inner FileSystem

	mu  sync.Mutex
	cfg ChaosConfig

	counts []*atomic.Int64
}

// NewChaosFS wraps inner with fault injection.
func NewChaosFS(inner FileSystem, cfg ChaosConfig) *ChaosFS {
	counts := make([]*atomic.Int64, len(hedge.Operations()))
	for i := range counts {
		counts[i] = &atomic.Int64{}
	}
	return &ChaosFS{
		inner:  inner,
		cfg:    cfg,
		counts: counts,
	}
}

// SetConfig swaps the fault-injection configuration at runtime.
func (c *ChaosFS) SetConfig(cfg ChaosConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// CallCount returns how many times the given operation reached this
// filesystem.
func (c *ChaosFS) CallCount(op hedge.Operation) int64 {
	if !op.Valid() {
		return 0
	}
	return c.counts[op].Load()
}

// ResetCallCounts zeroes all per-operation call counters.
func (c *ChaosFS) ResetCallCounts() {
	for _, count := range c.counts {
		count.Store(0)
	}
}

// inject counts the call, applies the configured delay and possibly fails.
func (c *ChaosFS) inject(op hedge.Operation) error {
	c.counts[op].Add(1)

	c.mu.Lock()
	cfg := c.cfg
	c.mu.Unlock()

	if d := cfg.delay(); d > 0 {
		time.Sleep(d)
	}
	if cfg.shouldInjectError() {
		return ErrChaosInjected
	}
	return nil
}

func (c *ChaosFS) Name() string {
	return "chaos:" + c.inner.Name()
}

func (c *ChaosFS) OpenFile(ctx context.Context, path string, flag int, perm os.FileMode) (File, error) {
	if err := c.inject(hedge.OpOpenFile); err != nil {
		return nil, err
	}
	return c.inner.OpenFile(ctx, path, flag, perm)
}

func (c *ChaosFS) FileExists(ctx context.Context, path string) (bool, error) {
	if err := c.inject(hedge.OpFileExists); err != nil {
		return false, err
	}
	return c.inner.FileExists(ctx, path)
}

func (c *ChaosFS) DirectoryExists(ctx context.Context, path string) (bool, error) {
	if err := c.inject(hedge.OpDirectoryExists); err != nil {
		return false, err
	}
	return c.inner.DirectoryExists(ctx, path)
}

func (c *ChaosFS) ListFiles(ctx context.Context, dir string) ([]DirEntry, error) {
	if err := c.inject(hedge.OpListFiles); err != nil {
		return nil, err
	}
	return c.inner.ListFiles(ctx, dir)
}

func (c *ChaosFS) Glob(ctx context.Context, pattern string) ([]string, error) {
	if err := c.inject(hedge.OpGlob); err != nil {
		return nil, err
	}
	return c.inner.Glob(ctx, pattern)
}

func (c *ChaosFS) FileSize(ctx context.Context, path string) (int64, error) {
	if err := c.inject(hedge.OpFileSize); err != nil {
		return 0, err
	}
	return c.inner.FileSize(ctx, path)
}

func (c *ChaosFS) LastModified(ctx context.Context, path string) (time.Time, error) {
	if err := c.inject(hedge.OpLastModified); err != nil {
		return time.Time{}, err
	}
	return c.inner.LastModified(ctx, path)
}

func (c *ChaosFS) FileType(ctx context.Context, path string) (FileType, error) {
	if err := c.inject(hedge.OpFileType); err != nil {
		return TypeInvalid, err
	}
	return c.inner.FileType(ctx, path)
}

func (c *ChaosFS) VersionTag(ctx context.Context, path string) (string, error) {
	if err := c.inject(hedge.OpVersionTag); err != nil {
		return "", err
	}
	return c.inner.VersionTag(ctx, path)
}
