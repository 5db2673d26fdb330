package ui

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer fires a callback on a Loop at a fixed interval.
//
// Ticks coalesce: while a tick is queued but not yet run, further ticks are
// dropped, so a blocked loop accumulates at most one pending callback.
type Timer struct {
	loop     *Loop
	interval time.Duration
	fn       func()

	pending  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTimer creates a stopped timer that runs fn on l every interval.
func (l *Loop) NewTimer(interval time.Duration, fn func()) *Timer {
	return &Timer{
		loop:     l,
		interval: interval,
		fn:       fn,
		stopCh:   make(chan struct{}),
	}
}

// Start begins ticking.
func (t *Timer) Start() {
	t.wg.Add(1)
	go t.run()
}

func (t *Timer) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			if !t.pending.CompareAndSwap(false, true) {
				continue
			}
			if !t.loop.Post(t.tick) {
				t.pending.Store(false)
			}
		}
	}
}

func (t *Timer) tick() {
	t.pending.Store(false)
	select {
	case <-t.stopCh:
		return
	default:
	}
	t.fn()
}

// Stop halts the timer and waits for its ticker goroutine to exit. A tick
// already queued on the loop is skipped. Stop is safe to call more than once.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	t.wg.Wait()
}
