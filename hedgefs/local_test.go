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
)

func TestLocal_FileOperations(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello hedgefs"), 0o644))

	fs := NewLocal()

	t.Run("FileExists", func(t *testing.T) {
		exists, err := fs.FileExists(ctx, path)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = fs.FileExists(ctx, filepath.Join(dir, "missing.txt"))
		require.NoError(t, err)
		assert.False(t, exists)

		// A directory is not a file.
		exists, err = fs.FileExists(ctx, dir)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("DirectoryExists", func(t *testing.T) {
		exists, err := fs.DirectoryExists(ctx, dir)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = fs.DirectoryExists(ctx, path)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("FileSize", func(t *testing.T) {
		size, err := fs.FileSize(ctx, path)
		require.NoError(t, err)
		assert.EqualValues(t, len("hello hedgefs"), size)
	})

	t.Run("LastModified", func(t *testing.T) {
		mtime, err := fs.LastModified(ctx, path)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), mtime, time.Minute)
	})

	t.Run("FileType", func(t *testing.T) {
		typ, err := fs.FileType(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, TypeRegular, typ)

		typ, err = fs.FileType(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, TypeDirectory, typ)
	})

	t.Run("VersionTag", func(t *testing.T) {
		tag, err := fs.VersionTag(ctx, path)
		require.NoError(t, err)
		assert.Empty(t, tag, "local files carry no version tag")
	})

	t.Run("OpenFile", func(t *testing.T) {
		f, err := fs.OpenFile(ctx, path, os.O_RDONLY, 0)
		require.NoError(t, err)
		defer f.Close()

		content, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "hello hedgefs", string(content))
	})
}

func TestLocal_ListFilesAndGlob(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.parquet"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.parquet"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.csv"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	fs := NewLocal()

	entries, err := fs.ListFiles(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	dirs := 0
	for _, entry := range entries {
		if entry.IsDir {
			dirs++
			assert.Equal(t, "sub", entry.Name)
		}
	}
	assert.Equal(t, 1, dirs)

	matches, err := fs.Glob(ctx, filepath.Join(dir, "*.parquet"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestLocal_Name(t *testing.T) {
	assert.Equal(t, "local", NewLocal().Name())
}
