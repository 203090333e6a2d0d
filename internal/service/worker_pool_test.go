package service

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPool_RunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(3)
	pool.Start()
	defer pool.Close()

	var executed int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&executed, 1)
		})
	}
	pool.Wait()

	if got := atomic.LoadInt64(&executed); got != 20 {
		t.Errorf("executed = %d, want 20", got)
	}
}

func TestWorkerPool_DefaultsWorkerCount(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.workers <= 0 {
		t.Errorf("workers = %d, want positive default", pool.workers)
	}
}

func TestWorkerPool_WaitWithNoJobs(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	// Wait must return immediately when nothing was submitted.
	pool.Wait()
}
