package sched

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Scheduler: the delivery contract
// ---------------------------------------------------------------------------

// DispatchMode selects between inline and queued execution of a task.
type DispatchMode int

const (
	// RunIfOnThread executes the task inline when the calling goroutine
	// owns the target queue, bypassing the queue entirely. Otherwise the
	// task is enqueued.
	RunIfOnThread DispatchMode = iota

	// RunIfProcessing executes the task inline only while the target queue
	// is draining on the calling goroutine. Otherwise the task is enqueued.
	RunIfProcessing

	// NeverInline always enqueues.
	NeverInline
)

// String returns a human-readable name for the dispatch mode.
func (m DispatchMode) String() string {
	switch m {
	case RunIfOnThread:
		return "ifOnThread"
	case RunIfProcessing:
		return "ifProcessing"
	case NeverInline:
		return "neverInline"
	default:
		return fmt.Sprintf("DispatchMode(%d)", int(m))
	}
}

// Scheduler queues callables onto a specific goroutine.
type Scheduler interface {
	// Dispatch enqueues or executes task per mode. The returned Future
	// completes when the task has finished; a panic inside the task is
	// captured into it.
	Dispatch(task func(), mode DispatchMode) *Future

	// DispatchAndWait dispatches the task and blocks until it completes.
	// When the calling goroutine owns the main queue, pending main-queue
	// work is serviced while waiting so that two queues waiting on each
	// other cannot deadlock.
	DispatchAndWait(task func(), mode DispatchMode) error

	// WaitForCompletion blocks until the queue has fully drained. It does
	// not imply that no further tasks will be added afterwards.
	WaitForCompletion()

	// CompletionFuture returns a Future satisfied once the queue has fully
	// drained.
	CompletionFuture() *Future

	// IsOnThread reports whether the calling goroutine owns this scheduler.
	IsOnThread() bool

	// IsProcessing reports whether the scheduler is currently inside its
	// drain loop.
	IsProcessing() bool
}

// ---------------------------------------------------------------------------
// TaskQueue: FIFO queue owned by one goroutine
// ---------------------------------------------------------------------------

// TaskQueue is the concrete Scheduler. The goroutine that constructs the
// queue becomes its owner; only the owner may call Process or Run. Dispatch
// may be called from any goroutine.
type TaskQueue struct {
	name  string
	owner int64

	mu      sync.Mutex
	tasks   []queuedTask
	waiters []*Future // completed when the backlog drains

	wake       chan struct{}
	processing atomic.Int32 // drain-loop nesting depth
}

type queuedTask struct {
	fn  func()
	fut *Future
}

// NewTaskQueue creates a queue owned by the calling goroutine.
func NewTaskQueue(name string) *TaskQueue {
	return &TaskQueue{
		name:  name,
		owner: GoroutineID(),
		wake:  make(chan struct{}, 1),
	}
}

// Name returns the queue's diagnostic name.
func (q *TaskQueue) Name() string {
	return q.name
}

// IsOnThread reports whether the calling goroutine owns the queue.
func (q *TaskQueue) IsOnThread() bool {
	return GoroutineID() == q.owner
}

// IsProcessing reports whether the queue is currently inside Process.
func (q *TaskQueue) IsProcessing() bool {
	return q.processing.Load() > 0
}

// Len returns the number of queued tasks not yet started.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Dispatch enqueues or executes task per mode. A nil task completes
// immediately.
func (q *TaskQueue) Dispatch(task func(), mode DispatchMode) *Future {
	if task == nil {
		return completedFuture(nil)
	}
	if q.runsInline(mode) {
		return completedFuture(runTask(task))
	}
	fut := newFuture()
	q.mu.Lock()
	q.tasks = append(q.tasks, queuedTask{task, fut})
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return fut
}

func (q *TaskQueue) runsInline(mode DispatchMode) bool {
	switch mode {
	case RunIfOnThread:
		return q.IsOnThread()
	case RunIfProcessing:
		return q.IsProcessing() && q.IsOnThread()
	default:
		return false
	}
}

// DispatchAndWait dispatches task and blocks until it has completed,
// returning the task's error.
func (q *TaskQueue) DispatchAndWait(task func(), mode DispatchMode) error {
	fut := q.Dispatch(task, mode)
	if fut.IsDone() {
		return fut.Err()
	}
	return q.waitServing(fut)
}

// waitServing blocks on fut. If the calling goroutine owns this queue, the
// queue is drained instead of sleeping. If it owns the main queue, pending
// main-queue work is serviced at the wait poll interval.
func (q *TaskQueue) waitServing(fut *Future) error {
	if q.IsOnThread() {
		for !fut.IsDone() {
			if q.Process() == 0 {
				time.Sleep(waitPoll())
			}
		}
		return fut.Err()
	}
	if m := Main(); m != nil && m != q && m.IsOnThread() {
		for {
			select {
			case <-fut.Done():
				return fut.Err()
			case <-time.After(waitPoll()):
				m.Process()
			}
		}
	}
	<-fut.Done()
	return fut.Err()
}

// Process drains the queue until it is empty and returns the number of tasks
// executed. It must be called from the owning goroutine.
func (q *TaskQueue) Process() int {
	if !q.IsOnThread() {
		panic(fmt.Sprintf("sched: Process for queue %q called from a goroutine that does not own it", q.name))
	}
	q.processing.Add(1)
	ran := 0
	for {
		q.mu.Lock()
		batch := q.tasks
		q.tasks = nil
		if len(batch) == 0 {
			q.processing.Add(-1)
			waiters := q.waiters
			q.waiters = nil
			q.mu.Unlock()
			for _, w := range waiters {
				w.complete(nil)
			}
			return ran
		}
		q.mu.Unlock()
		for _, t := range batch {
			t.fut.complete(runTask(t.fn))
			ran++
		}
	}
}

// Run serves the queue until ctx ends, draining on every wakeup. It must be
// called from the owning goroutine. It returns ctx.Err().
func (q *TaskQueue) Run(ctx context.Context) error {
	for {
		q.Process()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		}
	}
}

// WaitForCompletion blocks until the queue has fully drained.
func (q *TaskQueue) WaitForCompletion() {
	fut := q.CompletionFuture()
	if fut.IsDone() {
		return
	}
	q.waitServing(fut)
}

// CompletionFuture returns a Future satisfied once the queue has fully
// drained. If the queue is already idle the Future is complete on return.
func (q *TaskQueue) CompletionFuture() *Future {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 && q.processing.Load() == 0 {
		return completedFuture(nil)
	}
	fut := newFuture()
	q.waiters = append(q.waiters, fut)
	return fut
}

// runTask invokes fn, converting a panic into an error.
func runTask(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sched: task panicked: %v", r)
		}
	}()
	fn()
	return nil
}

// ---------------------------------------------------------------------------
// Process-wide main queue
// ---------------------------------------------------------------------------

var mainQueue atomic.Pointer[TaskQueue]

// SetMain nominates q as the process-wide main queue. Regions registered
// without an explicit scheduler deliver through it, and DispatchAndWait
// services it while the owning goroutine waits on another queue.
func SetMain(q *TaskQueue) {
	mainQueue.Store(q)
}

// Main returns the process-wide main queue, or nil if none has been set.
func Main() *TaskQueue {
	return mainQueue.Load()
}

// ---------------------------------------------------------------------------
// Wait polling
// ---------------------------------------------------------------------------

// DefaultWaitPoll is the default interval at which DispatchAndWait services
// the main queue while blocked.
const DefaultWaitPoll = 10 * time.Millisecond

var waitPollNanos atomic.Int64

// SetWaitPoll overrides the wait poll interval. Non-positive values restore
// the default.
func SetWaitPoll(d time.Duration) {
	if d <= 0 {
		waitPollNanos.Store(0)
		return
	}
	waitPollNanos.Store(int64(d))
}

func waitPoll() time.Duration {
	if n := waitPollNanos.Load(); n > 0 {
		return time.Duration(n)
	}
	return DefaultWaitPoll
}
