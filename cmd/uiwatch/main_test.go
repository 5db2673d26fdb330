package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ajsharma/uiwatch/internal/config"
)

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestLoadConfigDefaults(t *testing.T) {
	flags := config.DefaultConfig()
	flags.ChromePort = "9999" // not marked changed, must be ignored

	cfg, err := loadConfig("", flags, changedSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ChromePort != "9222" {
		t.Errorf("ChromePort = %q, want 9222", cfg.ChromePort)
	}
	if cfg.FreezeThreshold != 2*time.Second {
		t.Errorf("FreezeThreshold = %v, want 2s", cfg.FreezeThreshold)
	}
	if !cfg.Redact {
		t.Error("expected Redact true by default")
	}
}

func TestLoadConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uiwatch.yaml")
	content := `chrome_port: "9300"
freeze_threshold: 3s
status_addr: 127.0.0.1:8089
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	flags := config.DefaultConfig()
	flags.ChromePort = "9400"
	flags.Headless = true

	cfg, err := loadConfig(path, flags, changedSet("port", "headless", "no-redact"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ChromePort != "9400" {
		t.Errorf("ChromePort = %q, want flag value 9400", cfg.ChromePort)
	}
	if cfg.FreezeThreshold != 3*time.Second {
		t.Errorf("FreezeThreshold = %v, want file value 3s", cfg.FreezeThreshold)
	}
	if cfg.StatusAddr != "127.0.0.1:8089" {
		t.Errorf("StatusAddr = %q, want file value", cfg.StatusAddr)
	}
	if !cfg.Headless {
		t.Error("expected Headless from flag")
	}
	if cfg.Redact {
		t.Error("expected --no-redact to disable redaction")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"), config.DefaultConfig(), changedSet())
		if err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("invalid flag value", func(t *testing.T) {
		flags := config.DefaultConfig()
		flags.FreezeThreshold = 100 * time.Millisecond

		_, err := loadConfig("", flags, changedSet("freeze-threshold"))
		if err == nil {
			t.Error("expected validation error for threshold below heartbeat interval")
		}
	})
}

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ActionLogFile = filepath.Join(dir, "nested", "UserAction.log")
	cfg.EngineLogFile = ""
	cfg.TraceFile = filepath.Join(dir, "traces", "freeze.json")

	if err := resolvePaths(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !filepath.IsAbs(cfg.ActionLogFile) {
		t.Errorf("ActionLogFile not absolute: %q", cfg.ActionLogFile)
	}
	if cfg.EngineLogFile != "" {
		t.Errorf("empty EngineLogFile should stay empty, got %q", cfg.EngineLogFile)
	}
	for _, d := range []string{filepath.Join(dir, "nested"), filepath.Join(dir, "traces")} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", d)
		}
	}
}

func TestControlSubcommands(t *testing.T) {
	want := []string{"reload", "click", "type", "key", "scroll", "focus", "blur", "eval", "title", "url", "text"}

	have := make(map[string]bool)
	for _, c := range controlCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing control subcommand %q", name)
		}
	}

	// Leaving the inline document would hide the page from later commands.
	if have["navigate"] {
		t.Error("control must not offer navigate")
	}
}
