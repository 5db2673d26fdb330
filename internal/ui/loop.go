// Package ui provides the host's UI dispatch loop.
//
// The loop is a single goroutine locked to its OS thread that runs posted
// work in FIFO order. Anything that must observe the loop's liveness, such
// as the freeze watchdog, runs elsewhere.
package ui

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Loop runs posted functions one at a time on a dedicated thread.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	running atomic.Bool
	stopped bool
}

// NewLoop creates a loop. Call Run to start dispatching.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run dispatches posted work until ctx is cancelled. It blocks and must
// be called at most once. Work accepted by Post before the loop stopped
// still runs, in order, before Done is closed.
func (l *Loop) Run(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		return
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)
	defer l.drain()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}

		for {
			fn := l.next()
			if fn == nil {
				break
			}
			fn()
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// drain closes the loop to new work and runs what was already queued.
func (l *Loop) drain() {
	l.mu.Lock()
	l.stopped = true
	rest := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range rest {
		fn()
	}
}

// Post queues fn to run on the loop. It never blocks and reports false once
// the loop has stopped; a true result means fn will run.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Pending returns the number of queued functions not yet run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}
