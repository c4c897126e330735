package hedgefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/hedgefs-go/hedge"
)

func TestChaosFS_CountsCalls(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	chaos := NewChaosFS(NewLocal(), ChaosConfig{})

	_, err := chaos.FileExists(ctx, path)
	require.NoError(t, err)
	_, err = chaos.FileExists(ctx, path)
	require.NoError(t, err)
	_, err = chaos.DirectoryExists(ctx, dir)
	require.NoError(t, err)

	assert.EqualValues(t, 2, chaos.CallCount(hedge.OpFileExists))
	assert.EqualValues(t, 1, chaos.CallCount(hedge.OpDirectoryExists))
	assert.EqualValues(t, 0, chaos.CallCount(hedge.OpGlob))

	chaos.ResetCallCounts()
	assert.EqualValues(t, 0, chaos.CallCount(hedge.OpFileExists))
}

func TestChaosFS_InjectsLatency(t *testing.T) {
	ctx := context.Background()
	chaos := NewChaosFS(NewLocal(), ChaosConfig{Latency: 60 * time.Millisecond})

	start := time.Now()
	_, err := chaos.FileExists(ctx, filepath.Join(t.TempDir(), "nope"))

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestChaosFS_InjectsErrors(t *testing.T) {
	ctx := context.Background()
	chaos := NewChaosFS(NewLocal(), ChaosConfig{ErrorRate: 1.0})

	_, err := chaos.FileExists(ctx, "anything")
	assert.ErrorIs(t, err, ErrChaosInjected)

	_, err = chaos.Glob(ctx, "*")
	assert.ErrorIs(t, err, ErrChaosInjected)
}

func TestChaosFS_SetConfig(t *testing.T) {
	ctx := context.Background()
	chaos := NewChaosFS(NewLocal(), ChaosConfig{ErrorRate: 1.0})

	_, err := chaos.FileExists(ctx, "anything")
	require.ErrorIs(t, err, ErrChaosInjected)

	chaos.SetConfig(ChaosConfig{})

	_, err = chaos.FileExists(ctx, filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, err)
}

func TestChaosFS_Name(t *testing.T) {
	chaos := NewChaosFS(NewLocal(), ChaosConfig{})
	assert.Equal(t, "chaos:local", chaos.Name())
}
