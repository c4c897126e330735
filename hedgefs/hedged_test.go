package hedgefs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kroma-labs/hedgefs-go/hedge"
)

// newTestFS wires a chaos-injected local filesystem behind a hedged one.
// Every operation's delay is set to delay, hedging capped at maxHedged.
func newTestFS(t *testing.T, chaosCfg ChaosConfig, delay time.Duration, maxHedged int, opts ...Option) (*HedgedFS, *ChaosFS) {
	t.Helper()

	cfg := hedge.DefaultConfig()
	for _, op := range hedge.Operations() {
		cfg.Delays[op] = delay
	}
	cfg.MaxHedgedRequests = maxHedged

	chaos := NewChaosFS(NewLocal(), chaosCfg)
	fs, err := New(chaos, append([]Option{WithConfig(cfg)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })
	return fs, chaos
}

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_RequiresFileSystem(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilFileSystem)
}

func TestHedgedFS_FastBackendIsNotHedged(t *testing.T) {
	ctx := context.Background()
	fs, chaos := newTestFS(t, ChaosConfig{}, 500*time.Millisecond, 3)
	path := writeTestFile(t, "fast")

	f, err := fs.OpenFile(ctx, path, os.O_RDONLY, 0)
	require.NoError(t, err)
	defer f.Close()

	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "fast", string(content))
	assert.EqualValues(t, 1, chaos.CallCount(hedge.OpOpenFile))
	assert.Equal(t, 0, fs.Tracker().Len())
}

func TestHedgedFS_SlowOpenIsHedged(t *testing.T) {
	ctx := context.Background()
	fs, chaos := newTestFS(t, ChaosConfig{Latency: 150 * time.Millisecond}, 30*time.Millisecond, 2)
	path := writeTestFile(t, "slow but fine")

	f, err := fs.OpenFile(ctx, path, os.O_RDONLY, 0)
	require.NoError(t, err)
	defer f.Close()

	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "slow but fine", string(content))

	// Draining guarantees the loser finished (and its handle was closed).
	fs.Tracker().WaitAll()
	assert.EqualValues(t, 2, chaos.CallCount(hedge.OpOpenFile))
}

func TestHedgedFS_WallClockBoundedBySlowestAttempt(t *testing.T) {
	ctx := context.Background()
	const backendLatency = 200 * time.Millisecond
	fs, chaos := newTestFS(t, ChaosConfig{Latency: backendLatency}, 50*time.Millisecond, 4)
	path := writeTestFile(t, "x")

	start := time.Now()
	exists, err := fs.FileExists(ctx, path)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, exists)
	assert.GreaterOrEqual(t, chaos.CallCount(hedge.OpFileExists), int64(2),
		"at least a second attempt must start")
	// Bounded by one attempt's latency, not the sum of all attempts.
	assert.Less(t, elapsed, 2*backendLatency)
}

func TestHedgedFS_ZeroDelayDrainsPromptly(t *testing.T) {
	ctx := context.Background()
	fs, chaos := newTestFS(t, ChaosConfig{Latency: 40 * time.Millisecond}, 0, 2)
	path := writeTestFile(t, "x")

	exists, err := fs.FileExists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.EqualValues(t, 2, chaos.CallCount(hedge.OpFileExists))

	done := make(chan struct{})
	go func() {
		fs.Tracker().WaitAll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tracker did not drain after a zero-delay race")
	}
}

func TestHedgedFS_ErrorsPropagate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		delay time.Duration
		chaos ChaosConfig
	}{
		{
			name:  "given fast failing backend, then error surfaces without hedging",
			delay: time.Second,
		},
		{
			name:  "given slow failing backend, then the winning failure surfaces",
			delay: 20 * time.Millisecond,
			chaos: ChaosConfig{Latency: 80 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := newTestFS(t, tt.chaos, tt.delay, 2)
			missing := filepath.Join(t.TempDir(), "does-not-exist.txt")

			_, err := fs.OpenFile(ctx, missing, os.O_RDONLY, 0)

			assert.ErrorIs(t, err, os.ErrNotExist,
				"hedging must surface the backend error unchanged")
		})
	}
}

func TestHedgedFS_MetadataOperations(t *testing.T) {
	ctx := context.Background()
	fs, _ := newTestFS(t, ChaosConfig{}, time.Second, 2)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.parquet"), []byte("aa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.parquet"), nil, 0o644))

	exists, err := fs.DirectoryExists(ctx, dir)
	require.NoError(t, err)
	assert.True(t, exists)

	entries, err := fs.ListFiles(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	matches, err := fs.Glob(ctx, filepath.Join(dir, "*.parquet"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	size, err := fs.FileSize(ctx, filepath.Join(dir, "a.parquet"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, size)

	mtime, err := fs.LastModified(ctx, filepath.Join(dir, "a.parquet"))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), mtime, time.Minute)

	typ, err := fs.FileType(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, TypeDirectory, typ)

	tag, err := fs.VersionTag(ctx, filepath.Join(dir, "a.parquet"))
	require.NoError(t, err)
	assert.Empty(t, tag)
}

func TestHedgedFS_CoalescingDeduplicatesConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	// High delay so hedging never kicks in; latency so the duplicates overlap.
	fs, chaos := newTestFS(t, ChaosConfig{Latency: 100 * time.Millisecond},
		5*time.Second, 2, WithCoalescing())
	path := writeTestFile(t, "x")

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			exists, err := fs.FileExists(ctx, path)
			if err != nil {
				return err
			}
			assert.True(t, exists)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Less(t, chaos.CallCount(hedge.OpFileExists), int64(10),
		"concurrent identical calls must share backend executions")
}

func TestHedgedFS_AdaptiveDelaysTriggerHedging(t *testing.T) {
	ctx := context.Background()

	// Seed the latency history with fast samples so the adaptive delay is
	// far below the (deliberately huge) configured table delay.
	lat := hedge.NewLatencyTracker(100, 5)
	for i := 0; i < 10; i++ {
		lat.Record(hedge.OpFileExists, 10*time.Millisecond)
	}

	fs, chaos := newTestFS(t, ChaosConfig{Latency: 150 * time.Millisecond},
		time.Hour, 2,
		WithAdaptiveDelays(AdaptiveConfig{TargetPercentile: 0.95, Tracker: lat}))
	path := writeTestFile(t, "x")

	exists, err := fs.FileExists(ctx, path)

	require.NoError(t, err)
	assert.True(t, exists)
	fs.Tracker().WaitAll()
	assert.EqualValues(t, 2, chaos.CallCount(hedge.OpFileExists),
		"the adaptive delay must drive hedging despite the huge table delay")
}

func TestHedgedFS_SharedTracker(t *testing.T) {
	tracker, err := hedge.NewTracker()
	require.NoError(t, err)

	fs, err := New(NewLocal(), WithTracker(tracker))
	require.NoError(t, err)

	assert.Same(t, tracker, fs.Tracker())
	require.NoError(t, fs.Close())
}

func TestHedgedFS_Name(t *testing.T) {
	fs, err := New(NewLocal())
	require.NoError(t, err)
	defer fs.Close()

	assert.Equal(t, "hedged:local", fs.Name())
}

func TestHedgedFS_RuntimeConfigUpdates(t *testing.T) {
	fs, _ := newTestFS(t, ChaosConfig{}, time.Second, 3)

	require.NoError(t, fs.Tracker().UpdateDelay(hedge.OpGlob, 250*time.Millisecond))
	require.NoError(t, fs.Tracker().UpdateMaxHedgedRequests(2))

	cfg := fs.Tracker().Config()
	delay, err := cfg.Delay(hedge.OpGlob)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, delay)
	assert.Equal(t, 2, cfg.MaxHedgedRequests)
}
