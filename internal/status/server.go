// Package status serves a local health endpoint for the host window and a
// debug hook that stalls its UI loop on demand.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ajsharma/uiwatch/internal/freeze"
)

// MaxStall caps the duration accepted by the stall endpoint.
const MaxStall = 60 * time.Second

// Health status values.
const (
	StatusOK     = "ok"
	StatusFrozen = "frozen"
)

// Poster queues work onto the UI loop.
type Poster interface {
	Post(fn func()) bool
}

// Health is the /healthz response body.
type Health struct {
	Status         string `json:"status"`
	SessionID      string `json:"session_id"`
	HeartbeatAgeMs int64  `json:"heartbeat_age_ms"`
	ThresholdMs    int64  `json:"threshold_ms"`
	FreezeTicks    int64  `json:"freeze_ticks"`
	FreezeEpisodes int64  `json:"freeze_episodes"`
}

// Server exposes the window's freeze state over HTTP.
type Server struct {
	addr      string
	sessionID string
	heartbeat *freeze.Heartbeat
	watchdog  *freeze.Watchdog
	loop      Poster

	// sleep blocks the UI loop during a stall; replaced in tests.
	sleep func(time.Duration)

	router chi.Router
}

// NewServer creates a status server for the given heartbeat and watchdog.
// Stalls are posted to loop.
func NewServer(addr, sessionID string, hb *freeze.Heartbeat, wd *freeze.Watchdog, loop Poster) *Server {
	s := &Server{
		addr:      addr,
		sessionID: sessionID,
		heartbeat: hb,
		watchdog:  wd,
		loop:      loop,
		sleep:     time.Sleep,
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/debug/stall", s.handleStall)

	s.router = r
	return s
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("status server shutdown error: %v", err)
		}
	}()

	log.Printf("Status server listening on %s", s.addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

// Snapshot reports the current freeze state.
func (s *Server) Snapshot() Health {
	h := Health{
		Status:         StatusOK,
		SessionID:      s.sessionID,
		HeartbeatAgeMs: s.heartbeat.Age().Milliseconds(),
		ThresholdMs:    s.watchdog.Threshold().Milliseconds(),
		FreezeTicks:    s.watchdog.FreezeTicks(),
		FreezeEpisodes: s.watchdog.Episodes(),
	}
	if s.watchdog.Frozen() {
		h.Status = StatusFrozen
	}
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	if h.Status == StatusFrozen {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(h)
}

func (s *Server) handleStall(w http.ResponseWriter, r *http.Request) {
	d, err := parseStall(r.URL.Query().Get("duration"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.loop.Post(func() { s.sleep(d) }) {
		http.Error(w, "ui loop stopped", http.StatusServiceUnavailable)
		return
	}

	log.Printf("Stalling UI loop for %s", d)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"stall": d.String(),
	})
}

func parseStall(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, errors.New("duration is required")
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	if d > MaxStall {
		return 0, fmt.Errorf("duration %s exceeds maximum %s", d, MaxStall)
	}

	return d, nil
}
