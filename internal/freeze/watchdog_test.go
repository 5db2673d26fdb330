package freeze

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ajsharma/uiwatch/internal/events"
	"github.com/ajsharma/uiwatch/internal/ui"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Dispatch(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(kind events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

type episodeLog struct {
	starts []time.Time
	ends   [][2]time.Time
}

func (e *episodeLog) FreezeStarted(since time.Time, threshold time.Duration) {
	e.starts = append(e.starts, since)
}

func (e *episodeLog) FreezeEnded(since, until time.Time) {
	e.ends = append(e.ends, [2]time.Time{since, until})
}

func TestHeartbeat(t *testing.T) {
	clock := newFakeClock()
	hb := NewHeartbeat(clock.Now)

	if hb.Age() != 0 {
		t.Errorf("new heartbeat Age() = %v, want 0", hb.Age())
	}

	clock.Advance(700 * time.Millisecond)
	if hb.Age() != 700*time.Millisecond {
		t.Errorf("Age() = %v, want 700ms", hb.Age())
	}

	hb.Beat()
	if hb.Age() != 0 {
		t.Errorf("Age() after Beat = %v, want 0", hb.Age())
	}
	if !hb.Last().Equal(clock.Now()) {
		t.Errorf("Last() = %v, want %v", hb.Last(), clock.Now())
	}
}

func TestWatchdogCheck(t *testing.T) {
	clock := newFakeClock()
	hb := NewHeartbeat(clock.Now)
	rec := &recorder{}
	episodes := &episodeLog{}

	w := NewWatchdog(hb, 2*time.Second, 500*time.Millisecond, time.Second, rec)
	w.SetObserver(episodes)

	// Healthy: exactly at the threshold is not a freeze.
	clock.Advance(2 * time.Second)
	if w.Check() {
		t.Error("gap equal to threshold should not be a freeze")
	}
	if n := len(rec.all()); n != 0 {
		t.Fatalf("expected no events while healthy, got %d", n)
	}

	// Stale for three polls: one event per poll.
	stalledAt := hb.Last()
	for i := 0; i < 3; i++ {
		clock.Advance(500 * time.Millisecond)
		if !w.Check() {
			t.Fatalf("poll %d: expected freeze", i)
		}
	}
	if n := rec.count(events.KindFreezeDetected); n != 3 {
		t.Errorf("expected 3 freeze events, got %d", n)
	}
	if !w.Frozen() {
		t.Error("Frozen() should be true")
	}
	if w.FreezeTicks() != 3 {
		t.Errorf("FreezeTicks() = %d, want 3", w.FreezeTicks())
	}
	if w.Episodes() != 1 {
		t.Errorf("Episodes() = %d, want 1", w.Episodes())
	}
	if len(episodes.starts) != 1 || !episodes.starts[0].Equal(stalledAt) {
		t.Errorf("expected one episode start at %v, got %v", stalledAt, episodes.starts)
	}

	last := rec.all()[2]
	if last.Elapsed != 3500*time.Millisecond {
		t.Errorf("freeze Elapsed = %v, want 3.5s", last.Elapsed)
	}
	if last.Threshold != 2*time.Second {
		t.Errorf("freeze Threshold = %v, want 2s", last.Threshold)
	}

	// Loop comes back.
	hb.Beat()
	clock.Advance(100 * time.Millisecond)
	if w.Check() {
		t.Error("expected recovery")
	}
	if n := rec.count(events.KindFreezeRecovered); n != 1 {
		t.Fatalf("expected 1 recovery event, got %d", n)
	}
	recovered := rec.all()[3]
	if recovered.Elapsed != 3500*time.Millisecond {
		t.Errorf("recovery Elapsed = %v, want 3.5s", recovered.Elapsed)
	}
	if len(episodes.ends) != 1 {
		t.Fatalf("expected 1 episode end, got %d", len(episodes.ends))
	}

	// Healthy again: no further events.
	clock.Advance(100 * time.Millisecond)
	w.Check()
	if n := len(rec.all()); n != 4 {
		t.Errorf("expected 4 events total, got %d", n)
	}
	if w.Frozen() {
		t.Error("Frozen() should be false after recovery")
	}
}

func TestWatchdogSecondEpisode(t *testing.T) {
	clock := newFakeClock()
	hb := NewHeartbeat(clock.Now)
	rec := &recorder{}
	w := NewWatchdog(hb, time.Second, 100*time.Millisecond, 0, rec)

	for round := 0; round < 2; round++ {
		clock.Advance(1500 * time.Millisecond)
		w.Check()
		hb.Beat()
		w.Check()
	}

	if w.Episodes() != 2 {
		t.Errorf("Episodes() = %d, want 2", w.Episodes())
	}
	if n := rec.count(events.KindFreezeRecovered); n != 2 {
		t.Errorf("expected 2 recovery events, got %d", n)
	}
}

func TestWatchdogStop(t *testing.T) {
	hb := NewHeartbeat(nil)
	rec := &recorder{}
	w := NewWatchdog(hb, time.Hour, time.Millisecond, time.Hour, rec)

	w.Start(context.Background())

	done := make(chan struct{})
	go func() {
		w.Stop()
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while waiting out the initial delay")
	}
}

func fastSettings() Settings {
	return Settings{
		Threshold:         150 * time.Millisecond,
		HeartbeatInterval: 20 * time.Millisecond,
		WatchdogInterval:  20 * time.Millisecond,
		WatchdogDelay:     0,
	}
}

func runDetector(t *testing.T, s Settings) (*ui.Loop, *Detector, *recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := ui.NewLoop()
	go loop.Run(ctx)

	rec := &recorder{}
	d := NewDetector(loop, s, rec)
	d.Start(ctx)

	t.Cleanup(func() {
		d.Stop()
		cancel()
		<-loop.Done()
	})
	return loop, d, rec
}

func TestDetectorQuietWhenLoopHealthy(t *testing.T) {
	_, d, rec := runDetector(t, fastSettings())

	time.Sleep(500 * time.Millisecond)

	if n := rec.count(events.KindFreezeDetected); n != 0 {
		t.Errorf("expected no freeze events on a healthy loop, got %d", n)
	}
	if d.Watchdog().Frozen() {
		t.Error("healthy loop reported frozen")
	}
}

func TestDetectorReportsStall(t *testing.T) {
	s := fastSettings()
	loop, d, rec := runDetector(t, s)

	// Let a few heartbeats land first.
	time.Sleep(60 * time.Millisecond)

	stall := 600 * time.Millisecond
	detectedWhileBlocked := make(chan bool, 1)
	loop.Post(func() {
		deadline := time.Now().Add(stall)
		for time.Now().Before(deadline) {
			if rec.count(events.KindFreezeDetected) > 0 {
				detectedWhileBlocked <- true
				time.Sleep(time.Until(deadline))
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		detectedWhileBlocked <- false
	})

	if !<-detectedWhileBlocked {
		t.Fatal("no freeze event while the loop was blocked beyond the threshold")
	}

	// After the stall ends the heartbeat resumes and one recovery is logged.
	deadline := time.Now().Add(2 * time.Second)
	for rec.count(events.KindFreezeRecovered) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := rec.count(events.KindFreezeRecovered); n != 1 {
		t.Fatalf("expected 1 recovery event, got %d", n)
	}
	if d.Watchdog().Episodes() != 1 {
		t.Errorf("Episodes() = %d, want 1", d.Watchdog().Episodes())
	}

	var recovered events.Event
	for _, ev := range rec.all() {
		if ev.Kind == events.KindFreezeRecovered {
			recovered = ev
		}
	}
	if recovered.Elapsed < s.Threshold {
		t.Errorf("recovered stall %v shorter than threshold %v", recovered.Elapsed, s.Threshold)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.Threshold != 2*time.Second {
		t.Errorf("Threshold = %v, want 2s", s.Threshold)
	}
	if s.HeartbeatInterval != 500*time.Millisecond {
		t.Errorf("HeartbeatInterval = %v, want 500ms", s.HeartbeatInterval)
	}
	if s.WatchdogInterval != 500*time.Millisecond {
		t.Errorf("WatchdogInterval = %v, want 500ms", s.WatchdogInterval)
	}
	if s.WatchdogDelay != time.Second {
		t.Errorf("WatchdogDelay = %v, want 1s", s.WatchdogDelay)
	}
}
