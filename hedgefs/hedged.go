package hedgefs

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/kroma-labs/hedgefs-go/hedge"
)

// ErrNilFileSystem is returned by New when no backend is supplied.
var ErrNilFileSystem = errors.New("hedgefs: file system is required")

// HedgedFS wraps a FileSystem and races a second identical attempt against
// any operation that exceeds its configured delay. It satisfies FileSystem
// itself, so it can be dropped in front of any backend.
type HedgedFS struct {
	inner   FileSystem
	tracker *hedge.Tracker
	logger  zerolog.Logger

	// adaptive is nil unless WithAdaptiveDelays was used.
	adaptive *adaptiveDelays

	// group is nil unless WithCoalescing was used.
	group *singleflight.Group
}

// New wraps inner with hedging.
//
// Unless WithTracker supplies one, a tracker with the default
// configuration is created; it is reachable through Tracker for runtime
// configuration updates. Close the returned filesystem (or the tracker)
// on teardown so losing attempts are drained.
func New(inner FileSystem, opts ...Option) (*HedgedFS, error) {
	if inner == nil {
		return nil, ErrNilFileSystem
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	tracker := o.tracker
	if tracker == nil {
		var err error
		tracker, err = hedge.NewTracker(o.trackerOptions...)
		if err != nil {
			return nil, err
		}
	}

	h := &HedgedFS{
		inner:   inner,
		tracker: tracker,
		logger:  o.logger,
	}
	if o.adaptive != nil {
		h.adaptive = newAdaptiveDelays(*o.adaptive)
	}
	if o.coalesce {
		h.group = &singleflight.Group{}
	}
	return h, nil
}

// Tracker returns the pending-request tracker carrying the live hedging
// configuration.
func (h *HedgedFS) Tracker() *hedge.Tracker {
	return h.tracker
}

// Close drains every losing attempt still running in the background. It
// blocks until all of them have finished; stragglers are never cancelled.
func (h *HedgedFS) Close() error {
	return h.tracker.Close()
}

func (h *HedgedFS) Name() string {
	return "hedged:" + h.inner.Name()
}

// delayFor resolves the hedging delay for an operation: the adaptive
// percentile when enough samples exist, the configured table otherwise.
func (h *HedgedFS) delayFor(op hedge.Operation) time.Duration {
	if h.adaptive != nil {
		if d, ok := h.adaptive.delay(op); ok {
			return d
		}
	}
	delay, err := h.tracker.Config().Delay(op)
	if err != nil {
		// The enumeration is closed; every method passes a member.
		return 0
	}
	return delay
}

// call runs one logical operation through the hedging engine.
//
// Attempts may outlive the caller, so the work closure receives a context
// detached from cancellation; ctx itself is only used for telemetry.
func call[T any](ctx context.Context, h *HedgedFS, op hedge.Operation, work func(context.Context) (T, error), extra ...hedge.CallOption[T]) (T, error) {
	workCtx := context.WithoutCancel(ctx)
	fn := func() (T, error) { return work(workCtx) }

	opts := append([]hedge.CallOption[T]{hedge.WithOperation[T](op)}, extra...)

	start := time.Now()
	value, err := hedge.Do(ctx, fn, h.delayFor(op), h.tracker, opts...)
	if h.adaptive != nil {
		h.adaptive.record(op, time.Since(start))
	}
	return value, err
}

// coalesced is call with singleflight deduplication: concurrent identical
// read-only calls (same operation, same key) share one execution. Only
// used when coalescing is enabled; open is never coalesced because every
// caller needs its own handle.
func coalesced[T any](ctx context.Context, h *HedgedFS, op hedge.Operation, key string, work func(context.Context) (T, error)) (T, error) {
	if h.group == nil {
		return call(ctx, h, op, work)
	}

	v, err, _ := h.group.Do(op.String()+"|"+key, func() (any, error) {
		return call(ctx, h, op, work)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// OpenFile opens the named file with hedging. The returned handle is the
// winning attempt's; if a losing attempt also managed to open the file,
// its handle is closed in the background once that attempt finishes.
func (h *HedgedFS) OpenFile(ctx context.Context, path string, flag int, perm os.FileMode) (File, error) {
	logger := h.logger
	return call(ctx, h, hedge.OpOpenFile, func(ctx context.Context) (File, error) {
		return h.inner.OpenFile(ctx, path, flag, perm)
	}, hedge.WithDiscard[File](func(f File) {
		if f == nil {
			return
		}
		if err := f.Close(); err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("failed to close losing open's handle")
		}
	}))
}

func (h *HedgedFS) FileExists(ctx context.Context, path string) (bool, error) {
	return coalesced(ctx, h, hedge.OpFileExists, path, func(ctx context.Context) (bool, error) {
		return h.inner.FileExists(ctx, path)
	})
}

func (h *HedgedFS) DirectoryExists(ctx context.Context, path string) (bool, error) {
	return coalesced(ctx, h, hedge.OpDirectoryExists, path, func(ctx context.Context) (bool, error) {
		return h.inner.DirectoryExists(ctx, path)
	})
}

func (h *HedgedFS) ListFiles(ctx context.Context, dir string) ([]DirEntry, error) {
	return coalesced(ctx, h, hedge.OpListFiles, dir, func(ctx context.Context) ([]DirEntry, error) {
		return h.inner.ListFiles(ctx, dir)
	})
}

func (h *HedgedFS) Glob(ctx context.Context, pattern string) ([]string, error) {
	return coalesced(ctx, h, hedge.OpGlob, pattern, func(ctx context.Context) ([]string, error) {
		return h.inner.Glob(ctx, pattern)
	})
}

func (h *HedgedFS) FileSize(ctx context.Context, path string) (int64, error) {
	return coalesced(ctx, h, hedge.OpFileSize, path, func(ctx context.Context) (int64, error) {
		return h.inner.FileSize(ctx, path)
	})
}

func (h *HedgedFS) LastModified(ctx context.Context, path string) (time.Time, error) {
	return coalesced(ctx, h, hedge.OpLastModified, path, func(ctx context.Context) (time.Time, error) {
		return h.inner.LastModified(ctx, path)
	})
}

func (h *HedgedFS) FileType(ctx context.Context, path string) (FileType, error) {
	return coalesced(ctx, h, hedge.OpFileType, path, func(ctx context.Context) (FileType, error) {
		return h.inner.FileType(ctx, path)
	})
}

func (h *HedgedFS) VersionTag(ctx context.Context, path string) (string, error) {
	return coalesced(ctx, h, hedge.OpVersionTag, path, func(ctx context.Context) (string, error) {
		return h.inner.VersionTag(ctx, path)
	})
}
