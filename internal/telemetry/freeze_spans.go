package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for freeze spans.
const TracerName = "github.com/ajsharma/uiwatch/internal/freeze"

// Span attribute keys.
const (
	AttrStallMs     = attribute.Key("uiwatch.stall_ms")
	AttrThresholdMs = attribute.Key("uiwatch.threshold_ms")
	AttrSessionID   = attribute.Key("uiwatch.session_id")
	AttrUnrecovered = attribute.Key("uiwatch.unrecovered")
)

// FreezeSpans records one "ui.freeze" span per freeze episode.
// The span starts at the last heartbeat before the stall and ends at the
// first heartbeat after it.
type FreezeSpans struct {
	tracer    trace.Tracer
	sessionID string

	mu   sync.Mutex
	span trace.Span
}

// NewFreezeSpans creates a recorder using tp, or the global provider if tp is nil.
func NewFreezeSpans(tp trace.TracerProvider, sessionID string) *FreezeSpans {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &FreezeSpans{
		tracer:    tp.Tracer(TracerName),
		sessionID: sessionID,
	}
}

// FreezeStarted opens the episode span.
func (f *FreezeSpans) FreezeStarted(since time.Time, threshold time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.span != nil {
		return
	}

	_, f.span = f.tracer.Start(context.Background(), "ui.freeze",
		trace.WithTimestamp(since),
		trace.WithAttributes(
			AttrThresholdMs.Int64(threshold.Milliseconds()),
			AttrSessionID.String(f.sessionID),
		),
	)
}

// FreezeEnded closes the episode span.
func (f *FreezeSpans) FreezeEnded(since, until time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.span == nil {
		return
	}

	f.span.SetAttributes(AttrStallMs.Int64(until.Sub(since).Milliseconds()))
	f.span.End(trace.WithTimestamp(until))
	f.span = nil
}

// Close ends an episode still open at shutdown.
func (f *FreezeSpans) Close(at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.span == nil {
		return
	}

	f.span.SetAttributes(AttrUnrecovered.Bool(true))
	f.span.End(trace.WithTimestamp(at))
	f.span = nil
}
