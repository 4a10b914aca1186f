package sched

import (
	"context"
	"sync"
)

// ---------------------------------------------------------------------------
// Future: completion handle for dispatched tasks
// ---------------------------------------------------------------------------

// Future is completed exactly once, when the task it tracks has finished.
// A panic inside the task is recovered and surfaces as the Future's error.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// completedFuture returns a Future that is already complete with err.
func completedFuture(err error) *Future {
	f := newFuture()
	f.complete(err)
	return f
}

// complete resolves the future. Later calls are no-ops.
func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed when the task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the task has finished.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the task's error. It is only meaningful once Done is closed;
// before that it returns nil.
func (f *Future) Err() error {
	if !f.IsDone() {
		return nil
	}
	return f.err
}

// Wait blocks until the task finishes or ctx ends, whichever comes first.
// It returns the task's error, or the context's error on early exit.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
