package control

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp/kb"

	"github.com/ajsharma/uiwatch/internal/cdp"
)

func TestNewControllerNoHostedPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json" {
			t.Errorf("expected path /json, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"id": "tab1", "type": "page", "title": "Example", "url": "https://example.com"}]`))
	}))
	defer server.Close()

	port := strings.TrimPrefix(server.URL, "http://127.0.0.1:")

	_, err := NewController(context.Background(), port)
	if !errors.Is(err, ErrNoHostedPage) {
		t.Errorf("expected ErrNoHostedPage, got %v", err)
	}
}

func TestNewControllerChromeUnavailable(t *testing.T) {
	if _, err := NewController(context.Background(), "59999"); err == nil {
		t.Error("expected error when nothing listens on the port")
	}
}

func TestNewControllerAttachesToHostedPage(t *testing.T) {
	docURL := cdp.DocumentURL("<p>hi</p>")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[
			{"id": "BLANK", "type": "page", "url": "about:blank"},
			{"id": "HOSTED", "type": "page", "url": "` + docURL + `"}
		]`))
	}))
	defer server.Close()

	port := strings.TrimPrefix(server.URL, "http://127.0.0.1:")

	c, err := NewController(context.Background(), port)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	if c.TargetID() != "HOSTED" {
		t.Errorf("TargetID() = %q, want HOSTED", c.TargetID())
	}

	c.SetTimeout(5 * time.Second)
	if c.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", c.timeout)
	}
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Enter", kb.Enter},
		{"enter", kb.Enter},
		{"TAB", kb.Tab},
		{"esc", kb.Escape},
		{"Backspace", kb.Backspace},
		{"PageDown", kb.PageDown},
		{"a", "a"},
		{"Z", "Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyFor(tt.name); got != tt.expected {
				t.Errorf("keyFor(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}
