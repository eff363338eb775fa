// Package worker provides the fixed-size execution lane for CPU-bound
// extraction work, so HTML parsing on a busy instance cannot crowd out the
// goroutines waiting on the browser.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("worker: pool closed")

// Func is one unit of work. It should return promptly once ctx is done.
type Func func(ctx context.Context) error

type job struct {
	ctx  context.Context
	fn   Func
	done chan error
}

// Pool runs submitted functions on a fixed number of goroutines.
// It is safe for concurrent use.
type Pool struct {
	size   int
	jobs   chan job
	quit   chan struct{}
	active atomic.Int32
	wg     sync.WaitGroup
	once   sync.Once
}

// New starts a pool of size workers (at least one).
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		size: size,
		jobs: make(chan job),
		quit: make(chan struct{}),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.loop()
	}
	return p
}

// Do runs fn on a pool worker and waits for it. It returns ctx.Err() if ctx
// ends while queued or running; a running fn is expected to notice ctx and
// stop, its result is discarded either way.
func (p *Pool) Do(ctx context.Context, fn Func) error {
	done := make(chan error, 1)

	select {
	case p.jobs <- job{ctx: ctx, fn: fn, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrClosed
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Capacity returns the number of workers.
func (p *Pool) Capacity() int { return p.size }

// Active returns the number of workers currently running a job.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Close stops the workers after their current job. Queued callers get
// ErrClosed. Close is idempotent.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
		p.wg.Wait()
	})
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.jobs:
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			p.active.Add(1)
			err := run(j)
			p.active.Add(-1)
			j.done <- err
		case <-p.quit:
			return
		}
	}
}

// run converts a panic in fn into an error so one bad document cannot take
// a worker down.
func run(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker: job panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("worker: job panicked: %v", r)
		}
	}()
	return j.fn(j.ctx)
}
