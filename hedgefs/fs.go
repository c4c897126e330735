package hedgefs

import (
	"context"
	"io"
	"io/fs"
	"os"
	"time"
)

// File is a handle produced by a FileSystem. *os.File satisfies File.
type File interface {
	io.Reader
	io.ReaderAt
	io.Writer
	io.Seeker
	io.Closer

	// Name returns the path the file was opened with.
	Name() string

	// Sync flushes the file to stable storage.
	Sync() error

	// Truncate changes the size of the file.
	Truncate(size int64) error
}

// DirEntry is one entry returned by ListFiles.
type DirEntry struct {
	Name  string
	IsDir bool
}

// FileType classifies a path.
type FileType int

const (
	// TypeInvalid marks a path whose type could not be determined.
	TypeInvalid FileType = iota
	// TypeRegular is an ordinary file.
	TypeRegular
	// TypeDirectory is a directory.
	TypeDirectory
	// TypeSymlink is a symbolic link.
	TypeSymlink
	// TypePipe is a named pipe (FIFO).
	TypePipe
	// TypeSocket is a unix domain socket.
	TypeSocket
	// TypeDevice is a block or character device.
	TypeDevice
)

var fileTypeNames = map[FileType]string{
	TypeInvalid:   "invalid",
	TypeRegular:   "regular",
	TypeDirectory: "directory",
	TypeSymlink:   "symlink",
	TypePipe:      "pipe",
	TypeSocket:    "socket",
	TypeDevice:    "device",
}

func (t FileType) String() string {
	if name, ok := fileTypeNames[t]; ok {
		return name
	}
	return "invalid"
}

// fileTypeFromMode maps an os file mode to a FileType.
func fileTypeFromMode(mode fs.FileMode) FileType {
	switch {
	case mode.IsRegular():
		return TypeRegular
	case mode.IsDir():
		return TypeDirectory
	case mode&fs.ModeSymlink != 0:
		return TypeSymlink
	case mode&fs.ModeNamedPipe != 0:
		return TypePipe
	case mode&fs.ModeSocket != 0:
		return TypeSocket
	case mode&fs.ModeDevice != 0:
		return TypeDevice
	default:
		return TypeInvalid
	}
}

// FileSystem is the backend contract the hedging wrapper delegates to.
//
// Implementations may be remote and slow; every method must be safe for
// concurrent use, and must tolerate being executed twice for the same
// logical call, since hedging races identical invocations and keeps the
// first to finish. No guarantee is made about which of two concurrent
// identical operations reaches the backend first.
//
// The context carries telemetry and caller deadlines. Hedged attempts are
// started with a detached context because a dispatched attempt is never
// cancelled.
type FileSystem interface {
	// OpenFile opens the named file with the given flag and permissions.
	OpenFile(ctx context.Context, path string, flag int, perm os.FileMode) (File, error)

	// FileExists reports whether path names an existing file.
	FileExists(ctx context.Context, path string) (bool, error)

	// DirectoryExists reports whether path names an existing directory.
	DirectoryExists(ctx context.Context, path string) (bool, error)

	// ListFiles returns the entries of a directory.
	ListFiles(ctx context.Context, dir string) ([]DirEntry, error)

	// Glob returns the paths matching pattern.
	Glob(ctx context.Context, pattern string) ([]string, error)

	// FileSize returns the size of the named file in bytes.
	FileSize(ctx context.Context, path string) (int64, error)

	// LastModified returns the modification time of the named file.
	LastModified(ctx context.Context, path string) (time.Time, error)

	// FileType returns the type of the named path.
	FileType(ctx context.Context, path string) (FileType, error)

	// VersionTag returns an opaque version identifier for the named file,
	// e.g. an object-store ETag. Backends without versioning return "".
	VersionTag(ctx context.Context, path string) (string, error)

	// Name identifies the filesystem in logs and error messages.
	Name() string
}
