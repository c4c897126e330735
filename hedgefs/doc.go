// Package hedgefs provides a filesystem wrapper that performs hedged
// requests against a possibly-slow backing filesystem.
//
// Every metadata operation (open, exists checks, listing, glob, stat-like
// reads) is dispatched through the hedge package: if the backend has not
// answered within the per-operation delay, an identical second attempt is
// raced against it and the first to finish wins. Losing attempts run to
// completion in the background and are drained on Close.
//
// # Quick Start
//
//	fs, err := hedgefs.New(hedgefs.NewLocal(),
//	    hedgefs.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	defer fs.Close() // waits for losing attempts to finish
//
//	f, err := fs.OpenFile(ctx, "/data/events.parquet", os.O_RDONLY, 0)
//
// The wrapped backend can be anything that implements FileSystem: the
// local filesystem, an object-store gateway, a network mount. Methods that
// are not safe to execute twice (writes, removes) do not exist on the
// interface; hedging is only applied to repeatable read-side operations.
//
// # Tuning
//
// Delays come from the tracker's configuration and can be updated at
// runtime:
//
//	fs.Tracker().UpdateDelay(hedge.OpGlob, 2*time.Second)
//	fs.Tracker().UpdateMaxHedgedRequests(2)
//
// WithAdaptiveDelays derives each operation's delay from its observed
// latency percentile instead of the static table, and WithCoalescing
// deduplicates concurrent identical metadata calls before they reach the
// hedging engine.
//
// # Testing aids
//
// ChaosFS wraps any FileSystem with configurable latency, jitter and
// error injection plus per-operation call counters, which makes hedging
// behavior observable in tests:
//
//	chaos := hedgefs.NewChaosFS(hedgefs.NewLocal(), hedgefs.ChaosConfig{
//	    Latency: 200 * time.Millisecond,
//	})
//	fs, _ := hedgefs.New(chaos)
package hedgefs
