package hedge

import (
	"fmt"
	"sync"
)

// Task runs a unit of work on its own goroutine and records its outcome.
//
// A Task becomes ready exactly once, when its work function returns
// (successfully or with an error). On completion it signals the Token it
// was started with, waking any hedged call racing on it. Tasks are never
// cancelled: a dispatched Task always runs to completion.
type Task[T any] struct {
	mu    sync.Mutex
	ready bool
	value T
	err   error

	done  chan struct{}
	token *Token
}

// Start dispatches work on a new goroutine and returns the Task tracking it.
//
// A panic inside work is recovered and captured as the Task's error, so a
// misbehaving backend cannot take down the process mid-race.
func Start[T any](work func() (T, error), token *Token) *Task[T] {
	t := &Task[T]{
		done:  make(chan struct{}),
		token: token,
	}

	go func() {
		value, err := runWork(work)

		t.mu.Lock()
		t.value = value
		t.err = err
		t.ready = true
		t.mu.Unlock()

		close(t.done)
		if token != nil {
			token.Signal()
		}
	}()

	return t
}

func runWork[T any](work func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hedge: work panicked: %v", r)
		}
	}()
	return work()
}

// Ready reports whether the Task has finished, without blocking.
func (t *Task[T]) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

// Wait blocks until the Task has finished, without consuming its result.
func (t *Task[T]) Wait() {
	<-t.done
}

// Get blocks until the Task has finished, then returns its outcome.
func (t *Task[T]) Get() (T, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// Err returns the Task's error. It is nil until the Task is ready.
func (t *Task[T]) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
