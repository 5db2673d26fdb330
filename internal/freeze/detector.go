package freeze

import (
	"context"
	"time"

	"github.com/ajsharma/uiwatch/internal/ui"
)

// Settings configures a Detector.
type Settings struct {
	Threshold         time.Duration
	HeartbeatInterval time.Duration
	WatchdogInterval  time.Duration
	WatchdogDelay     time.Duration
}

// DefaultSettings returns the stock 2s threshold with 500ms polling.
func DefaultSettings() Settings {
	return Settings{
		Threshold:         DefaultThreshold,
		HeartbeatInterval: DefaultHeartbeatInterval,
		WatchdogInterval:  DefaultWatchdogInterval,
		WatchdogDelay:     DefaultWatchdogDelay,
	}
}

// Detector pairs a heartbeat timer on the UI loop with a watchdog off it.
// Both are owned by the detector and stop together.
type Detector struct {
	heartbeat *Heartbeat
	timer     *ui.Timer
	watchdog  *Watchdog
}

// NewDetector wires a detector to loop. Freeze events go to out.
func NewDetector(loop *ui.Loop, s Settings, out Dispatcher) *Detector {
	return newDetector(loop, s, out, time.Now)
}

func newDetector(loop *ui.Loop, s Settings, out Dispatcher, now Clock) *Detector {
	hb := NewHeartbeat(now)
	return &Detector{
		heartbeat: hb,
		timer:     loop.NewTimer(s.HeartbeatInterval, hb.Beat),
		watchdog:  NewWatchdog(hb, s.Threshold, s.WatchdogInterval, s.WatchdogDelay, out),
	}
}

// SetObserver registers a freeze episode observer. Call before Start.
func (d *Detector) SetObserver(o EpisodeObserver) {
	d.watchdog.SetObserver(o)
}

// Start stamps an initial heartbeat and starts both timers.
func (d *Detector) Start(ctx context.Context) {
	d.heartbeat.Beat()
	d.timer.Start()
	d.watchdog.Start(ctx)
}

// Stop halts both timers and waits for them.
func (d *Detector) Stop() {
	d.timer.Stop()
	d.watchdog.Stop()
}

// Heartbeat returns the shared heartbeat.
func (d *Detector) Heartbeat() *Heartbeat {
	return d.heartbeat
}

// Watchdog returns the detector's watchdog.
func (d *Detector) Watchdog() *Watchdog {
	return d.watchdog
}
