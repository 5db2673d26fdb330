// Package freeze detects when the UI loop stops servicing work.
//
// A heartbeat timer on the UI loop stamps the current time into a shared
// atomic value; a watchdog goroutine compares that stamp with the clock and
// reports when the gap exceeds a threshold.
package freeze

import (
	"sync/atomic"
	"time"
)

// Defaults for the detector.
const (
	DefaultThreshold         = 2000 * time.Millisecond
	DefaultHeartbeatInterval = 500 * time.Millisecond
	DefaultWatchdogInterval  = 500 * time.Millisecond
	DefaultWatchdogDelay     = 1000 * time.Millisecond
)

// Clock returns the current time.
type Clock func() time.Time

// Heartbeat holds the last time the UI loop proved it was alive.
// It has one writer (the UI loop) and any number of readers.
//
// Beats are stored as offsets from a fixed origin so comparisons use the
// monotonic clock and survive wall-clock adjustments.
type Heartbeat struct {
	origin time.Time
	last   atomic.Int64 // nanoseconds since origin
	now    Clock
}

// NewHeartbeat creates a heartbeat stamped with the current time.
func NewHeartbeat(now Clock) *Heartbeat {
	if now == nil {
		now = time.Now
	}
	return &Heartbeat{origin: now(), now: now}
}

// Beat records that the loop is alive now.
func (hb *Heartbeat) Beat() {
	hb.last.Store(int64(hb.now().Sub(hb.origin)))
}

// Last returns the time of the most recent beat.
func (hb *Heartbeat) Last() time.Time {
	return hb.origin.Add(time.Duration(hb.last.Load()))
}

// Age returns how long ago the last beat happened.
func (hb *Heartbeat) Age() time.Duration {
	return hb.now().Sub(hb.Last())
}
