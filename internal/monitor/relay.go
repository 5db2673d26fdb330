// Package monitor observes the hosted page and relays its events to the
// action log.
package monitor

import (
	"sync"

	"github.com/ajsharma/uiwatch/internal/events"
	"github.com/ajsharma/uiwatch/internal/redact"
)

// Logger receives formatted log lines.
type Logger interface {
	Log(message string)
}

// Dispatcher accepts events of any kind.
type Dispatcher interface {
	Dispatch(ev events.Event)
}

// Relay is the single dispatch point for every event kind. It applies
// redaction to page-side messages, counts events by kind, and writes each
// event's lines to the logger. Safe for concurrent use.
type Relay struct {
	log      Logger
	redactor *redact.Redactor

	mu     sync.Mutex
	counts map[events.Kind]int64
}

// NewRelay creates a relay writing to log. redactor may be nil.
func NewRelay(log Logger, redactor *redact.Redactor) *Relay {
	return &Relay{
		log:      log,
		redactor: redactor,
		counts:   make(map[events.Kind]int64),
	}
}

// Dispatch formats and logs ev.
func (r *Relay) Dispatch(ev events.Event) {
	if ev.Kind == events.KindWebMessage && r.redactor != nil {
		ev.Message = r.redactor.RedactMessage(ev.Message)
	}

	r.mu.Lock()
	r.counts[ev.Kind]++
	r.mu.Unlock()

	for _, line := range ev.Lines() {
		r.log.Log(line)
	}
}

// Note logs a free-text line.
func (r *Relay) Note(format string, args ...interface{}) {
	r.Dispatch(events.NewNoteEvent(format, args...))
}

// Count returns how many events of kind have been dispatched.
func (r *Relay) Count(kind events.Kind) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[kind]
}
