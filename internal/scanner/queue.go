package scanner

import (
	"sync"
	"sync/atomic"
)

// task binds one frame buffer to a pending recognition against the
// session's engine handle.
type task struct {
	frame *FrameBuffer
}

// taskQueue is a single-slot mailbox between the submitting thread and the
// worker goroutine, with latest-wins semantics: a submission that finds a
// task still pending releases the stale frame and takes its place, so the
// worker always processes the freshest frame and never falls behind a live
// camera feed.
//
// The queue has its own lock, independent of the session's engine lock, so
// submissions never contend with an in-flight recognition call.
type taskQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  *task
	shutdown bool
	dropped  uint64
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// submit stores a task and wakes the worker. Never blocks. A frame already
// pending is superseded: released immediately and counted as dropped.
// Returns false if the queue has shut down; the frame is released in that
// case so it cannot leak.
func (q *taskQueue) submit(t *task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdown {
		t.frame.release()
		return false
	}

	if q.pending != nil {
		q.pending.frame.release()
		q.pending = nil
		atomic.AddUint64(&q.dropped, 1)
	}

	q.pending = t
	q.cond.Signal()
	return true
}

// takeBlocking suspends the caller until a task is pending or the queue
// shuts down. On shutdown it returns (nil, false) immediately, leaving any
// still-pending task for drain.
func (q *taskQueue) takeBlocking() (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.pending == nil && !q.shutdown {
		q.cond.Wait()
	}
	if q.shutdown {
		return nil, false
	}

	t := q.pending
	q.pending = nil
	return t, true
}

// close sets the shutdown flag and wakes the worker
func (q *taskQueue) close() {
	q.mu.Lock()
	q.shutdown = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// drain releases any frame still held. Used on the shutdown path after the
// worker has exited.
func (q *taskQueue) drain() {
	q.mu.Lock()
	if q.pending != nil {
		q.pending.frame.release()
		q.pending = nil
	}
	q.mu.Unlock()
}

// droppedCount reports how many pending frames were superseded by newer
// submissions
func (q *taskQueue) droppedCount() uint64 {
	return atomic.LoadUint64(&q.dropped)
}
