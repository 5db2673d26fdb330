// Package events defines the host's diagnostic events and their log text.
package events

import (
	"fmt"
	"time"
)

// Kind identifies which variant an Event carries.
type Kind int

// Lifecycle kinds fired by the browser engine.
const (
	KindNote Kind = iota
	KindInitialized
	KindInitFailed
	KindNavigationStarting
	KindContentLoading
	KindDOMContentLoaded
	KindNavigationCompleted
	KindProcessFailed
	KindWebMessage
)

// Watchdog kinds.
const (
	KindFreezeDetected Kind = iota + 100
	KindFreezeRecovered
)

var kindNames = map[Kind]string{
	KindNote:                "note",
	KindInitialized:         "initialized",
	KindInitFailed:          "init_failed",
	KindNavigationStarting:  "navigation_starting",
	KindContentLoading:      "content_loading",
	KindDOMContentLoaded:    "dom_content_loaded",
	KindNavigationCompleted: "navigation_completed",
	KindProcessFailed:       "process_failed",
	KindWebMessage:          "web_message",
	KindFreezeDetected:      "freeze_detected",
	KindFreezeRecovered:     "freeze_recovered",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Process failure kinds, named after the engine's own categories.
const (
	ProcessBrowserExited = "BrowserProcessExited"
	ProcessRenderExited  = "RenderProcessExited"
)

// Process descriptions.
const (
	ProcessDescBrowser  = "browser"
	ProcessDescRenderer = "renderer"
)

// NavigationStatusOK is the status reported for a successful navigation.
const NavigationStatusOK = "Success"

// Log line prefixes that callers grep for.
const (
	FreezeDetectedPrefix  = "[UI FREEZE DETECTED]"
	FreezeRecoveredPrefix = "[UI RESPONSIVE]"
	WebMessagePrefix      = "JS Event: "
)

// maxURLLength bounds URLs in log lines; inline documents travel as
// data: URLs that can be many kilobytes long.
const maxURLLength = 120

// Event is a single diagnostic occurrence. Only the fields relevant to its
// Kind are set.
type Event struct {
	Kind Kind

	// Navigation
	URL     string
	Success bool
	Status  string

	// Initialization
	BrowserVersion string
	Err            error
	Stack          string

	// Process failure
	FailureKind        string
	Reason             string
	ExitCode           int
	ProcessDescription string

	// Note and web message text
	Message string

	// Watchdog
	Elapsed   time.Duration
	Threshold time.Duration
}

// NewNoteEvent creates a free-text event.
func NewNoteEvent(format string, args ...interface{}) Event {
	return Event{Kind: KindNote, Message: fmt.Sprintf(format, args...)}
}

// NewInitializedEvent creates an initialized event for the given browser version.
func NewInitializedEvent(browserVersion string) Event {
	return Event{Kind: KindInitialized, BrowserVersion: browserVersion}
}

// NewInitFailedEvent creates an initialization failure event.
func NewInitFailedEvent(err error, stack string) Event {
	return Event{Kind: KindInitFailed, Err: err, Stack: stack}
}

// NewNavigationStartingEvent creates a navigation-starting event.
func NewNavigationStartingEvent(url string) Event {
	return Event{Kind: KindNavigationStarting, URL: url}
}

// NewContentLoadingEvent creates a content-loading event.
func NewContentLoadingEvent(url string) Event {
	return Event{Kind: KindContentLoading, URL: url}
}

// NewDOMContentLoadedEvent creates a DOM-content-loaded event.
func NewDOMContentLoadedEvent(url string) Event {
	return Event{Kind: KindDOMContentLoaded, URL: url}
}

// NewNavigationCompletedEvent creates a navigation-completed event.
func NewNavigationCompletedEvent(url string, success bool, status string) Event {
	return Event{Kind: KindNavigationCompleted, URL: url, Success: success, Status: status}
}

// NewProcessFailedEvent creates a process failure event.
func NewProcessFailedEvent(kind, reason string, exitCode int, description string) Event {
	return Event{
		Kind:               KindProcessFailed,
		FailureKind:        kind,
		Reason:             reason,
		ExitCode:           exitCode,
		ProcessDescription: description,
	}
}

// NewWebMessageEvent creates an event for a message posted by the page.
func NewWebMessageEvent(message string) Event {
	return Event{Kind: KindWebMessage, Message: message}
}

// NewFreezeDetectedEvent creates a freeze event.
func NewFreezeDetectedEvent(elapsed, threshold time.Duration) Event {
	return Event{Kind: KindFreezeDetected, Elapsed: elapsed, Threshold: threshold}
}

// NewFreezeRecoveredEvent creates a recovery event for a stall of the given length.
func NewFreezeRecoveredEvent(stalled, threshold time.Duration) Event {
	return Event{Kind: KindFreezeRecovered, Elapsed: stalled, Threshold: threshold}
}

// Lines renders the event as log messages. Most kinds produce one line;
// an initialization failure produces the error and its stack trace.
func (e Event) Lines() []string {
	switch e.Kind {
	case KindInitialized:
		return []string{"Browser initialized successfully. Browser version: " + e.BrowserVersion}

	case KindInitFailed:
		return []string{
			fmt.Sprintf("ERROR: Initialization failed - %v", e.Err),
			"ERROR: Stack trace - " + e.Stack,
		}

	case KindNavigationStarting:
		return []string{"NAV Starting: " + ShortenURL(e.URL)}

	case KindContentLoading:
		return []string{"Content loading"}

	case KindDOMContentLoaded:
		return []string{"DOM content loaded"}

	case KindNavigationCompleted:
		return []string{fmt.Sprintf("NAV Completed - Success: %t, Status: %s", e.Success, e.Status)}

	case KindProcessFailed:
		return []string{fmt.Sprintf("PROCESS FAILED - Kind: %s, Reason: %s, Exit code: %d, Process: %s",
			e.FailureKind, e.Reason, e.ExitCode, e.ProcessDescription)}

	case KindWebMessage:
		return []string{WebMessagePrefix + e.Message}

	case KindFreezeDetected:
		return []string{fmt.Sprintf("%s UI thread is unresponsive (no heartbeat for %s, threshold %s)",
			FreezeDetectedPrefix, roundMillis(e.Elapsed), roundMillis(e.Threshold))}

	case KindFreezeRecovered:
		return []string{fmt.Sprintf("%s UI thread recovered after %s", FreezeRecoveredPrefix, roundMillis(e.Elapsed))}

	default:
		return []string{e.Message}
	}
}

// ShortenURL truncates long URLs for logging.
func ShortenURL(url string) string {
	if len(url) <= maxURLLength {
		return url
	}
	return url[:maxURLLength] + "..."
}

func roundMillis(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
