package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/ajsharma/uiwatch/internal/events"
)

// Poster queues work onto the UI loop.
type Poster interface {
	Post(fn func()) bool
}

// PageMonitor translates CDP events for the hosted page into events and
// posts their dispatch onto the UI loop, the way a native browser control
// raises its callbacks on the UI thread.
type PageMonitor struct {
	out  Dispatcher
	loop Poster

	targetID    target.ID
	mainFrameID cdp.FrameID

	// Target context for CDP commands.
	targetCtx context.Context

	// evaluate runs a script in the page; replaced in tests.
	evaluate func(ctx context.Context, script string) error

	mu         sync.RWMutex
	currentURL string
	pendingURL string
}

// NewPageMonitor creates a monitor that dispatches to out via loop.
func NewPageMonitor(out Dispatcher, loop Poster) *PageMonitor {
	return &PageMonitor{
		out:      out,
		loop:     loop,
		evaluate: evaluateScript,
	}
}

// Attach enables the CDP domains the monitor needs on targetCtx, installs
// the message binding, and starts listening. targetCtx must be a chromedp
// context for the hosted page.
func (pm *PageMonitor) Attach(targetCtx context.Context) error {
	if err := chromedp.Run(targetCtx,
		page.Enable(),
		runtime.Enable(),
		runtime.AddBinding(BindingName),
	); err != nil {
		return fmt.Errorf("failed to enable page domains: %w", err)
	}

	c := chromedp.FromContext(targetCtx)
	if c == nil || c.Target == nil {
		return fmt.Errorf("no target attached to context")
	}

	pm.targetCtx = targetCtx
	pm.targetID = c.Target.TargetID
	// Chrome gives a page's main frame the same ID as its target.
	pm.mainFrameID = cdp.FrameID(c.Target.TargetID)

	chromedp.ListenTarget(targetCtx, pm.handleEvent)
	chromedp.ListenBrowser(targetCtx, pm.handleBrowserEvent)

	return nil
}

// Navigate loads url in the page. Failures are reported as an unsuccessful
// NavigationCompleted event rather than returned.
func (pm *PageMonitor) Navigate(ctx context.Context, url string) {
	pm.mu.Lock()
	pm.pendingURL = url
	pm.mu.Unlock()

	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return
		}
		pm.post(events.NewNavigationCompletedEvent(url, false, err.Error()))
	}
}

// CurrentURL returns the URL of the last committed main-frame navigation.
func (pm *PageMonitor) CurrentURL() string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.currentURL
}

// handleEvent processes target-level CDP events.
func (pm *PageMonitor) handleEvent(ev interface{}) {
	for _, out := range pm.translate(ev) {
		pm.post(out)
		if out.Kind == events.KindDOMContentLoaded {
			// Listeners must not block: run the script off this goroutine.
			go pm.injectTrackingScript()
		}
	}
}

// handleBrowserEvent processes browser-level CDP events.
func (pm *PageMonitor) handleBrowserEvent(ev interface{}) {
	if ev, ok := ev.(*target.EventTargetCrashed); ok && ev.TargetID == pm.targetID {
		pm.post(events.NewProcessFailedEvent(
			events.ProcessRenderExited,
			ev.Status,
			int(ev.ErrorCode),
			events.ProcessDescRenderer,
		))
	}
}

// translate maps a CDP event to zero or more events. Only main-frame
// navigation is reported.
func (pm *PageMonitor) translate(ev interface{}) []events.Event {
	switch ev := ev.(type) {
	case *page.EventFrameRequestedNavigation:
		if pm.isMainFrame(ev.FrameID) {
			pm.mu.Lock()
			pm.pendingURL = ev.URL
			pm.mu.Unlock()
		}

	case *page.EventFrameStartedLoading:
		if pm.isMainFrame(ev.FrameID) {
			pm.mu.RLock()
			url := pm.pendingURL
			if url == "" {
				// Reloads announce no target URL.
				url = pm.currentURL
			}
			pm.mu.RUnlock()

			return []events.Event{events.NewNavigationStartingEvent(url)}
		}

	case *page.EventFrameNavigated:
		if ev.Frame != nil && ev.Frame.ParentID == "" {
			pm.mu.Lock()
			pm.currentURL = ev.Frame.URL
			pm.pendingURL = ""
			pm.mu.Unlock()

			return []events.Event{events.NewContentLoadingEvent(ev.Frame.URL)}
		}

	case *page.EventDomContentEventFired:
		return []events.Event{events.NewDOMContentLoadedEvent(pm.CurrentURL())}

	case *page.EventLoadEventFired:
		return []events.Event{events.NewNavigationCompletedEvent(pm.CurrentURL(), true, events.NavigationStatusOK)}

	case *runtime.EventBindingCalled:
		if ev.Name == BindingName {
			return []events.Event{events.NewWebMessageEvent(ev.Payload)}
		}
	}

	return nil
}

func (pm *PageMonitor) isMainFrame(id cdp.FrameID) bool {
	return pm.mainFrameID == "" || id == pm.mainFrameID
}

// injectTrackingScript evaluates TrackingScript in the page.
func (pm *PageMonitor) injectTrackingScript() {
	if pm.targetCtx == nil {
		return
	}

	if err := pm.evaluate(pm.targetCtx, TrackingScript); err != nil {
		if pm.targetCtx.Err() != nil {
			return
		}
		pm.post(events.NewNoteEvent("ERROR: Action tracking script failed - %v", err))
		return
	}

	pm.post(events.NewNoteEvent("Action tracking script injected"))
}

// post queues dispatch of ev on the UI loop, or dispatches inline once
// the loop has stopped.
func (pm *PageMonitor) post(ev events.Event) {
	if !pm.loop.Post(func() { pm.out.Dispatch(ev) }) {
		pm.out.Dispatch(ev)
	}
}

func evaluateScript(ctx context.Context, script string) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, exp, err := runtime.Evaluate(script).Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return fmt.Errorf("script threw: %s", exp.Text)
		}
		return nil
	}))
}
