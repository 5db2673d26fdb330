// Package control drives synthetic user actions in a running uiwatch
// window, producing the page events the host relays to its action log.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/ajsharma/uiwatch/internal/cdp"
)

// DefaultSelector targets the editable document body.
const DefaultSelector = "body"

// ErrNoHostedPage is returned when no uiwatch page is open on the port.
var ErrNoHostedPage = errors.New("no uiwatch page found")

// Controller attaches to the hosted page of a running uiwatch window.
type Controller struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	timeout    time.Duration
	targetID   string
}

// NewController attaches to the hosted page on the Chrome instance at port.
func NewController(ctx context.Context, port string) (*Controller, error) {
	pages, err := cdp.DiscoverPages(ctx, port)
	if err != nil {
		return nil, err
	}

	page := cdp.FindHostedPage(pages)
	if page == nil {
		return nil, fmt.Errorf("%w on port %s", ErrNoHostedPage, port)
	}

	allocatorCtx, allocatorCancel := chromedp.NewRemoteAllocator(ctx, "http://localhost:"+port)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithTargetID(target.ID(page.TargetID)),
	)

	return &Controller{
		browserCtx: browserCtx,
		cancel: func() {
			browserCancel()
			allocatorCancel()
		},
		timeout:  30 * time.Second,
		targetID: page.TargetID,
	}, nil
}

// SetTimeout sets the default timeout for operations.
func (c *Controller) SetTimeout(d time.Duration) {
	c.timeout = d
}

// TargetID returns the attached page's target ID.
func (c *Controller) TargetID() string {
	return c.targetID
}

// Close releases resources.
func (c *Controller) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Controller) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(c.browserCtx, c.timeout)
	defer cancel()

	return chromedp.Run(ctx, actions...)
}

// Reload reloads the hosted page.
func (c *Controller) Reload() error {
	return c.run(chromedp.Reload())
}

// Click clicks on an element matching the selector.
func (c *Controller) Click(selector string) error {
	return c.run(
		chromedp.WaitVisible(selector),
		chromedp.Click(selector),
	)
}

// Type sends text to an element matching the selector. Each character
// produces its own key events.
func (c *Controller) Type(selector, text string) error {
	return c.run(
		chromedp.WaitVisible(selector),
		chromedp.SendKeys(selector, text),
	)
}

// KeyPress sends a single named key, such as "Enter" or "a", to the
// focused element.
func (c *Controller) KeyPress(name string) error {
	return c.run(chromedp.KeyEvent(keyFor(name)))
}

// ScrollTo scrolls an element into view.
func (c *Controller) ScrollTo(selector string) error {
	return c.run(chromedp.ScrollIntoView(selector))
}

// ScrollBy scrolls the page vertically by dy pixels.
func (c *Controller) ScrollBy(dy int) error {
	return c.run(chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", dy), nil))
}

// Focus focuses on an element.
func (c *Controller) Focus(selector string) error {
	return c.run(chromedp.Focus(selector))
}

// Blur removes focus from an element.
func (c *Controller) Blur(selector string) error {
	return c.run(chromedp.Blur(selector))
}

// Evaluate executes JavaScript and returns the result as JSON.
func (c *Controller) Evaluate(js string) (string, error) {
	var result interface{}
	if err := c.run(chromedp.Evaluate(js, &result)); err != nil {
		return "", err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// GetText retrieves the text content of an element.
func (c *Controller) GetText(selector string) (string, error) {
	var text string
	err := c.run(
		chromedp.WaitVisible(selector),
		chromedp.Text(selector, &text),
	)
	if err != nil {
		return "", err
	}

	return text, nil
}

// GetTitle returns the current page title.
func (c *Controller) GetTitle() (string, error) {
	var title string
	if err := c.run(chromedp.Title(&title)); err != nil {
		return "", err
	}

	return title, nil
}

// GetURL returns the current page URL.
func (c *Controller) GetURL() (string, error) {
	var url string
	if err := c.run(chromedp.Location(&url)); err != nil {
		return "", err
	}

	return url, nil
}

// namedKeys maps friendly key names to the characters chromedp sends.
var namedKeys = map[string]string{
	"enter":     kb.Enter,
	"tab":       kb.Tab,
	"escape":    kb.Escape,
	"esc":       kb.Escape,
	"backspace": kb.Backspace,
	"delete":    kb.Delete,
	"up":        kb.ArrowUp,
	"down":      kb.ArrowDown,
	"left":      kb.ArrowLeft,
	"right":     kb.ArrowRight,
	"home":      kb.Home,
	"end":       kb.End,
	"pageup":    kb.PageUp,
	"pagedown":  kb.PageDown,
}

// keyFor resolves a key name, falling back to the name itself so single
// characters pass through unchanged.
func keyFor(name string) string {
	if k, ok := namedKeys[strings.ToLower(name)]; ok {
		return k
	}
	return name
}
