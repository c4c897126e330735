package hedgefs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Local is the os-backed FileSystem.
type Local struct{}

// NewLocal returns a FileSystem over the local disk.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Name() string {
	return "local"
}

func (l *Local) OpenFile(_ context.Context, path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

func (l *Local) FileExists(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (l *Local) DirectoryExists(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (l *Local) ListFiles(_ context.Context, dir string) ([]DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, DirEntry{Name: entry.Name(), IsDir: entry.IsDir()})
	}
	return out, nil
}

func (l *Local) Glob(_ context.Context, pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

func (l *Local) FileSize(_ context.Context, path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (l *Local) LastModified(_ context.Context, path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (l *Local) FileType(_ context.Context, path string) (FileType, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return TypeInvalid, err
	}
	return fileTypeFromMode(info.Mode()), nil
}

// VersionTag returns "" for local files, which carry no version tag.
func (l *Local) VersionTag(_ context.Context, _ string) (string, error) {
	return "", nil
}
