package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/ajsharma/uiwatch/internal/events"
	"github.com/ajsharma/uiwatch/internal/redact"
)

func TestRelayDispatch(t *testing.T) {
	tests := []struct {
		name     string
		event    events.Event
		expected []string
	}{
		{
			name:     "note",
			event:    events.NewNoteEvent("Browser initialization started"),
			expected: []string{"Browser initialization started"},
		},
		{
			name:  "init failure carries stack",
			event: events.NewInitFailedEvent(errors.New("no chrome"), "goroutine 1 [running]:\nmain.main()"),
			expected: []string{
				"ERROR: Initialization failed - no chrome",
				"ERROR: Stack trace - goroutine 1 [running]:\nmain.main()",
			},
		},
		{
			name:     "freeze detected",
			event:    events.NewFreezeDetectedEvent(2500*time.Millisecond, 2*time.Second),
			expected: []string{"[UI FREEZE DETECTED] UI thread is unresponsive (no heartbeat for 2.5s, threshold 2s)"},
		},
		{
			name:     "web message",
			event:    events.NewWebMessageEvent("FOCUS: INPUT#name"),
			expected: []string{"JS Event: FOCUS: INPUT#name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &memLogger{}
			NewRelay(log, redact.New(true)).Dispatch(tt.event)

			lines := log.snapshot()
			if len(lines) != len(tt.expected) {
				t.Fatalf("got %d lines %q, want %d", len(lines), lines, len(tt.expected))
			}
			for i := range lines {
				if lines[i] != tt.expected[i] {
					t.Errorf("line %d = %q, want %q", i, lines[i], tt.expected[i])
				}
			}
		})
	}
}

func TestRelayRedactsOnlyWebMessages(t *testing.T) {
	log := &memLogger{}
	r := NewRelay(log, redact.New(true))

	r.Dispatch(events.NewWebMessageEvent("INPUT: token=abc123"))
	r.Note("Loaded config with token=abc123")

	lines := log.snapshot()
	want := []string{
		"JS Event: INPUT: token=[REDACTED]",
		"Loaded config with token=abc123",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRelayWithoutRedactor(t *testing.T) {
	log := &memLogger{}
	NewRelay(log, nil).Dispatch(events.NewWebMessageEvent("INPUT: token=abc123"))

	lines := log.snapshot()
	if len(lines) != 1 || lines[0] != "JS Event: INPUT: token=abc123" {
		t.Errorf("unexpected lines %q", lines)
	}
}

func TestRelayCount(t *testing.T) {
	r := NewRelay(&memLogger{}, nil)

	r.Dispatch(events.NewWebMessageEvent("CLICK: A at (1,1)"))
	r.Dispatch(events.NewWebMessageEvent("CLICK: A at (2,2)"))
	r.Dispatch(events.NewDOMContentLoadedEvent("about:blank"))
	r.Note("hello %s", "world")

	if got := r.Count(events.KindWebMessage); got != 2 {
		t.Errorf("Count(WebMessage) = %d, want 2", got)
	}
	if got := r.Count(events.KindDOMContentLoaded); got != 1 {
		t.Errorf("Count(DOMContentLoaded) = %d, want 1", got)
	}
	if got := r.Count(events.KindNote); got != 1 {
		t.Errorf("Count(Note) = %d, want 1", got)
	}
	if got := r.Count(events.KindProcessFailed); got != 0 {
		t.Errorf("Count(ProcessFailed) = %d, want 0", got)
	}
}
