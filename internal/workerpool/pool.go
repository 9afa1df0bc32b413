// Package workerpool bounds the number of blocking filesystem operations
// that may run concurrently across all requests. In this module only the
// ChunkStreamer's ReadAt calls are submitted to it; stat, open, and readdir
// run directly on the request goroutine and are not bounded by the pool.
//
// net/http already gives every request its own goroutine, so the pool is not
// needed for concurrency itself — it exists to cap how many of those
// goroutines may be blocked in a syscall at once, the way the teacher's
// worker-pool-backed static file server used a fixed-size thread pool rather
// than a thread per request.
package workerpool

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool runs caller-supplied tasks with bounded concurrency. It is safe for
// concurrent use by many requests.
type Pool interface {
	// Push runs task on the calling goroutine once a slot is free, blocking
	// until then or until ctx is done. It returns ctx.Err() if ctx is
	// cancelled before a slot becomes available.
	Push(ctx context.Context, task func()) error

	// InFlight reports the number of tasks currently executing. Intended
	// for metrics and tests, not for correctness decisions.
	InFlight() int64
}

// Semaphore is a Pool backed by a weighted semaphore: each task occupies one
// unit of weight for its duration. It does not spawn dedicated worker
// goroutines of its own; Push runs task on the calling goroutine once
// admitted, which keeps ownership of the admitted goroutine's stack (and any
// FileHandle it holds) with the caller, matching the linear-ownership model
// described in SPEC_FULL.md §9.
type Semaphore struct {
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

// New returns a Semaphore pool that admits at most concurrency tasks at a
// time. concurrency must be >= 1.
func New(concurrency int) *Semaphore {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Semaphore{sem: semaphore.NewWeighted(int64(concurrency))}
}

// Push implements Pool.
func (p *Semaphore) Push(ctx context.Context, task func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		p.sem.Release(1)
	}()
	task()
	return nil
}

// InFlight implements Pool.
func (p *Semaphore) InFlight() int64 {
	return p.inFlight.Load()
}
