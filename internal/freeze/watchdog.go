package freeze

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajsharma/uiwatch/internal/events"
)

// Dispatcher receives watchdog events.
type Dispatcher interface {
	Dispatch(ev events.Event)
}

// EpisodeObserver is told when a freeze episode begins and ends.
// since is the last heartbeat before the stall.
type EpisodeObserver interface {
	FreezeStarted(since time.Time, threshold time.Duration)
	FreezeEnded(since, until time.Time)
}

// Watchdog polls a Heartbeat from its own goroutine and reports staleness.
//
// Every stale poll dispatches a FreezeDetected event; there is no
// deduplication. The first fresh poll after a freeze dispatches one
// FreezeRecovered event.
type Watchdog struct {
	hb        *Heartbeat
	threshold time.Duration
	interval  time.Duration
	delay     time.Duration
	out       Dispatcher
	observer  EpisodeObserver

	// Guarded by mu: Check may be called from tests while the loop runs.
	mu          sync.Mutex
	frozen      bool
	frozenSince time.Time

	ticks    atomic.Int64
	episodes atomic.Int64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatchdog creates a stopped watchdog.
func NewWatchdog(hb *Heartbeat, threshold, interval, delay time.Duration, out Dispatcher) *Watchdog {
	return &Watchdog{
		hb:        hb,
		threshold: threshold,
		interval:  interval,
		delay:     delay,
		out:       out,
		stopCh:    make(chan struct{}),
	}
}

// SetObserver registers an episode observer. Call before Start.
func (w *Watchdog) SetObserver(o EpisodeObserver) {
	w.observer = o
}

// Start polls after the initial delay, then every interval, until ctx is
// cancelled or Stop is called.
func (w *Watchdog) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

func (w *Watchdog) run(ctx context.Context) {
	defer w.wg.Done()

	if w.delay > 0 {
		delay := time.NewTimer(w.delay)
		select {
		case <-ctx.Done():
			delay.Stop()
			return
		case <-w.stopCh:
			delay.Stop()
			return
		case <-delay.C:
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check compares the heartbeat age with the threshold once and reports
// whether the loop is considered frozen.
func (w *Watchdog) Check() bool {
	last := w.hb.Last()
	elapsed := w.hb.now().Sub(last)
	stale := elapsed > w.threshold

	w.mu.Lock()
	wasFrozen := w.frozen
	since := w.frozenSince
	if stale && !wasFrozen {
		w.frozen = true
		w.frozenSince = last
		since = last
	} else if !stale && wasFrozen {
		w.frozen = false
	}
	w.mu.Unlock()

	switch {
	case stale:
		w.ticks.Add(1)
		if !wasFrozen {
			w.episodes.Add(1)
			if w.observer != nil {
				w.observer.FreezeStarted(since, w.threshold)
			}
		}
		w.out.Dispatch(events.NewFreezeDetectedEvent(elapsed, w.threshold))

	case wasFrozen:
		if w.observer != nil {
			w.observer.FreezeEnded(since, last)
		}
		w.out.Dispatch(events.NewFreezeRecoveredEvent(last.Sub(since), w.threshold))
	}

	return stale
}

// Stop halts polling and waits for the goroutine to exit. Safe to call
// more than once.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	w.wg.Wait()
}

// Frozen reports whether the last poll found the loop frozen.
func (w *Watchdog) Frozen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frozen
}

// FreezeTicks returns the number of stale polls so far.
func (w *Watchdog) FreezeTicks() int64 {
	return w.ticks.Load()
}

// Episodes returns the number of distinct freezes so far.
func (w *Watchdog) Episodes() int64 {
	return w.episodes.Load()
}

// Threshold returns the configured freeze threshold.
func (w *Watchdog) Threshold() time.Duration {
	return w.threshold
}
