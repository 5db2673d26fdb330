package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// requestTimeout bounds a single DevTools HTTP request.
const requestTimeout = 2 * time.Second

var discoveryClient = &http.Client{Timeout: requestTimeout}

// Endpoint is what the host needs to attach to a running Chrome.
type Endpoint struct {
	// Version is the product string reported in the Initialized event,
	// such as "Chrome/120.0.6099.109".
	Version      string
	WebSocketURL string
}

// Page is a page target listed by the DevTools endpoint.
type Page struct {
	TargetID string
	Title    string
	URL      string
}

func devtoolsURL(port, path string) string {
	return "http://localhost:" + port + path
}

// getJSON fetches one DevTools endpoint and decodes its body into out.
func getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := discoveryClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status code: %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// DiscoverEndpoint reads the browser version and WebSocket URL from the
// /json/version endpoint on port.
func DiscoverEndpoint(ctx context.Context, port string) (*Endpoint, error) {
	var v struct {
		Browser              string `json:"Browser"`
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := getJSON(ctx, devtoolsURL(port, "/json/version"), &v); err != nil {
		return nil, fmt.Errorf("failed to query Chrome on port %s: %w", port, err)
	}
	if v.WebSocketDebuggerURL == "" {
		return nil, fmt.Errorf("chrome on port %s reported no browser WebSocket URL", port)
	}

	return &Endpoint{Version: v.Browser, WebSocketURL: v.WebSocketDebuggerURL}, nil
}

// DiscoverPages lists the page targets on port, skipping workers,
// extensions and other target types.
func DiscoverPages(ctx context.Context, port string) ([]*Page, error) {
	var targets []struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := getJSON(ctx, devtoolsURL(port, "/json"), &targets); err != nil {
		return nil, fmt.Errorf("failed to list targets on port %s: %w", port, err)
	}

	var pages []*Page
	for _, t := range targets {
		if t.Type == "page" {
			pages = append(pages, &Page{TargetID: t.ID, Title: t.Title, URL: t.URL})
		}
	}
	return pages, nil
}

// WaitForChrome polls port until Chrome serves its endpoint and lists at
// least one page, and returns the endpoint. It gives up after timeout or
// when ctx is cancelled.
func WaitForChrome(ctx context.Context, port string, timeout time.Duration) (*Endpoint, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for {
		ep, err := DiscoverEndpoint(waitCtx, port)
		if err == nil {
			var pages []*Page
			if pages, err = DiscoverPages(waitCtx, port); err == nil && len(pages) == 0 {
				err = errors.New("no page targets")
			}
			if err == nil {
				return ep, nil
			}
		}
		lastErr = err

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("chrome on port %s not ready after %v: %w", port, timeout, lastErr)
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// FindHostedPage returns the page showing the inline document, preferring
// the most recently listed one, or nil if there is none.
func FindHostedPage(pages []*Page) *Page {
	for i := len(pages) - 1; i >= 0; i-- {
		if IsInlineDocumentURL(pages[i].URL) {
			return pages[i]
		}
	}
	return nil
}
