package monitor

import (
	_ "embed"
)

// BindingName is the page-side function the tracking script calls to relay
// a message to the host. It is installed with Runtime.addBinding.
const BindingName = "__uiwatchPostMessage"

// TrackingScript attaches click, keydown, focus, blur, selection, scroll
// (throttled to 200ms), and input listeners to the document. Each listener
// posts a tagged line such as "CLICK: DIV at (10,20)" through BindingName.
// Running it twice on the same document is a no-op.
//
//go:embed tracking.js
var TrackingScript string

// Message tags posted by TrackingScript.
const (
	TagClick     = "CLICK:"
	TagKeyDown   = "KEYDOWN:"
	TagFocus     = "FOCUS:"
	TagBlur      = "BLUR:"
	TagSelection = "SELECTION:"
	TagScroll    = "SCROLL:"
	TagInput     = "INPUT:"
)

// TrackingReadyMessage is posted once the listeners are attached.
const TrackingReadyMessage = "Action tracking initialized"
