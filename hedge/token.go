package hedge

import (
	"sync"
	"time"
)

// Token signals completion across a set of racing tasks.
//
// Any number of concurrently running tasks share one Token; the first to
// finish wakes every waiter. The Token carries no task identity: after a
// wake the waiter must inspect each task's own readiness to find out which
// one (if any) actually finished, and re-wait if none is ready yet.
//
// A Token is scoped to a single hedged call and must not be shared across
// calls.
type Token struct {
	mu        sync.Mutex
	completed bool
	ch        chan struct{}
}

// NewToken creates a fresh, unsignalled Token.
func NewToken() *Token {
	return &Token{ch: make(chan struct{})}
}

// Signal marks the Token as completed and wakes all waiters.
//
// Safe to call concurrently from multiple tasks: the first caller wins and
// later calls are no-ops.
func (t *Token) Signal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed {
		return
	}
	t.completed = true
	close(t.ch)
}

// Completed reports whether the Token has been signalled, without blocking.
func (t *Token) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Reset clears the flag so a waiter can wait for a further completion.
//
// Only the waiter may call Reset, and only after having observed (or
// checked for) the previous completion. Tasks never reset the Token.
func (t *Token) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.completed {
		return
	}
	t.completed = false
	t.ch = make(chan struct{})
}

// Wait blocks until the Token is signalled or timeout elapses, whichever
// comes first. It reports whether it was woken by a completion rather than
// the timeout. A non-positive timeout checks the flag without blocking.
func (t *Token) Wait(timeout time.Duration) bool {
	t.mu.Lock()
	if t.completed {
		t.mu.Unlock()
		return true
	}
	ch := t.ch
	t.mu.Unlock()

	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}
