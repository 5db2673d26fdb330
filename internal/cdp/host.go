package cdp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	cdproto "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/ajsharma/uiwatch/internal/config"
	"github.com/ajsharma/uiwatch/internal/events"
	"github.com/ajsharma/uiwatch/internal/freeze"
	"github.com/ajsharma/uiwatch/internal/monitor"
	"github.com/ajsharma/uiwatch/internal/ui"
)

const (
	chromeReadyTimeout = 30 * time.Second

	// browserExitReason is reported when Chrome exits without being asked to.
	browserExitReason = "Unexpected"
)

// Host owns the window: the UI loop, the freeze detector, and the browser
// engine hosting the inline document.
type Host struct {
	config   *config.Config
	relay    *monitor.Relay
	loop     *ui.Loop
	detector *freeze.Detector
	page     *monitor.PageMonitor

	waitTimeout time.Duration
	started     atomic.Bool
	ready       atomic.Bool
	wg          sync.WaitGroup

	mu            sync.Mutex
	cancel        context.CancelFunc
	loopCancel    context.CancelFunc
	browserCancel context.CancelFunc
	chromeProcess *ChromeProcess
}

// NewHost creates a host that reports every event through relay.
func NewHost(cfg *config.Config, relay *monitor.Relay) *Host {
	loop := ui.NewLoop()
	return &Host{
		config:      cfg,
		relay:       relay,
		loop:        loop,
		detector:    freeze.NewDetector(loop, settingsFromConfig(cfg), relay),
		page:        monitor.NewPageMonitor(relay, loop),
		waitTimeout: chromeReadyTimeout,
	}
}

func settingsFromConfig(cfg *config.Config) freeze.Settings {
	return freeze.Settings{
		Threshold:         cfg.FreezeThreshold,
		HeartbeatInterval: cfg.HeartbeatInterval,
		WatchdogInterval:  cfg.WatchdogInterval,
		WatchdogDelay:     cfg.WatchdogDelay,
	}
}

// SetEpisodeObserver registers an observer for freeze episodes. Call
// before Start.
func (h *Host) SetEpisodeObserver(o freeze.EpisodeObserver) {
	h.detector.SetObserver(o)
}

// Loop returns the UI loop.
func (h *Host) Loop() *ui.Loop {
	return h.loop
}

// Detector returns the freeze detector.
func (h *Host) Detector() *freeze.Detector {
	return h.detector
}

// Ready reports whether the engine finished initializing and is still up.
func (h *Host) Ready() bool {
	return h.ready.Load()
}

// Start runs the window until ctx is cancelled. The engine initializes in
// the background; if that fails the window keeps running without it.
func (h *Host) Start(ctx context.Context) error {
	if h.started.Swap(true) {
		return errors.New("host already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	loopCtx, loopCancel := context.WithCancel(context.Background())

	h.mu.Lock()
	h.cancel = cancel
	h.loopCancel = loopCancel
	h.mu.Unlock()

	go h.loop.Run(loopCtx)
	h.detector.Start(runCtx)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.initBrowser(runCtx)
	}()

	<-runCtx.Done()
	return nil
}

// initBrowser brings up the engine and navigates to the inline document.
// Failures are logged once and not retried.
func (h *Host) initBrowser(ctx context.Context) {
	h.post(events.NewNoteEvent("Browser initialization started"))

	browserCtx, version, err := h.connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		h.post(events.NewInitFailedEvent(err, string(debug.Stack())))
		return
	}

	h.ready.Store(true)
	h.post(events.NewInitializedEvent(version))
	h.post(events.NewNoteEvent("Browser environment ready"))
	h.post(events.NewNoteEvent("Diagnostic events setup complete"))

	h.post(events.NewNoteEvent("Inline document navigation requested"))
	h.page.Navigate(browserCtx, DocumentURL(InlineDocumentHTML))
}

// connect launches or attaches to Chrome, opens the hosted page, and wires
// the page monitor to it. It returns the page context and browser version.
func (h *Host) connect(ctx context.Context) (context.Context, string, error) {
	port := h.config.ChromePort

	if !h.config.Attach {
		cp, err := LaunchChrome(LaunchOptions{
			Port:          port,
			Headless:      h.config.Headless,
			EngineLogFile: h.config.EngineLogFile,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to launch chrome: %w", err)
		}

		h.mu.Lock()
		h.chromeProcess = cp
		h.mu.Unlock()

		go h.watchProcess(ctx, cp)
		log.Printf("Launched Chrome (PID: %d) on port %s", cp.PID(), port)
	}

	ep, err := WaitForChrome(ctx, port, h.waitTimeout)
	if err != nil {
		return nil, "", fmt.Errorf("chrome not ready: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, ep.WebSocketURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	h.mu.Lock()
	h.browserCancel = func() {
		browserCancel()
		allocCancel()
	}
	h.mu.Unlock()

	// The first run opens the hosted page.
	if err := h.page.Attach(browserCtx); err != nil {
		return nil, "", err
	}

	// Crash events are only reported to a browser session with discovery on.
	c := chromedp.FromContext(browserCtx)
	if err := target.SetDiscoverTargets(true).Do(cdproto.WithExecutor(browserCtx, c.Browser)); err != nil {
		return nil, "", fmt.Errorf("failed to enable target discovery: %w", err)
	}

	return browserCtx, ep.Version, nil
}

// watchProcess reports Chrome exiting on its own as a process failure.
func (h *Host) watchProcess(ctx context.Context, cp *ChromeProcess) {
	select {
	case <-ctx.Done():
		return
	case <-cp.Done():
	}

	if cp.Stopping() {
		return
	}

	h.ready.Store(false)
	h.post(events.NewProcessFailedEvent(
		events.ProcessBrowserExited,
		browserExitReason,
		cp.ExitCode(),
		events.ProcessDescBrowser,
	))
}

// post queues dispatch of ev on the UI loop, or dispatches inline once
// the loop has stopped.
func (h *Host) post(ev events.Event) {
	if !h.loop.Post(func() { h.relay.Dispatch(ev) }) {
		h.relay.Dispatch(ev)
	}
}

// Stop tears the window down in reverse order of Start.
func (h *Host) Stop() {
	log.Println("Shutting down...")

	h.mu.Lock()
	cancel := h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	h.detector.Stop()
	h.wg.Wait()

	h.mu.Lock()
	browserCancel := h.browserCancel
	cp := h.chromeProcess
	loopCancel := h.loopCancel
	h.browserCancel = nil
	h.chromeProcess = nil
	h.loopCancel = nil
	h.mu.Unlock()

	h.ready.Store(false)

	if browserCancel != nil {
		browserCancel()
	}

	if cp != nil {
		if err := cp.Stop(); err != nil {
			log.Printf("Error stopping Chrome: %v", err)
		}
	}

	if loopCancel != nil {
		loopCancel()
		<-h.loop.Done()
	}

	log.Println("Shutdown complete")
}
