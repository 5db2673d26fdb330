// uiwatch hosts a browser page on a UI loop, logs the user's actions in it,
// and reports when the loop stops responding.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajsharma/uiwatch/internal/cdp"
	"github.com/ajsharma/uiwatch/internal/config"
	"github.com/ajsharma/uiwatch/internal/logger"
	"github.com/ajsharma/uiwatch/internal/monitor"
	"github.com/ajsharma/uiwatch/internal/redact"
	"github.com/ajsharma/uiwatch/internal/status"
	"github.com/ajsharma/uiwatch/internal/telemetry"
)

var (
	flagCfg    = config.DefaultConfig()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "uiwatch",
	Short: "Host a browser page and log user actions and UI freezes",
	Long: `uiwatch opens an editable page in Chrome, drives it from a single UI
loop, and appends every browser lifecycle event and user action to a plain
text action log. A watchdog outside the loop logs a freeze line whenever the
loop's heartbeat goes quiet for longer than the freeze threshold.

Example:
  # Launch Chrome and log to logs/UserAction.log
  uiwatch

  # Attach to a Chrome already started with --remote-debugging-port=9222
  uiwatch --attach

  # Load settings from a file and expose a health endpoint
  uiwatch --config uiwatch.yaml --status-addr 127.0.0.1:8089`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"YAML config file; flags override its values")

	// Engine flags
	rootCmd.Flags().StringVarP(&flagCfg.ChromePort, "port", "p", flagCfg.ChromePort,
		"Chrome remote debugging port")
	rootCmd.Flags().BoolVar(&flagCfg.Attach, "attach", flagCfg.Attach,
		"Attach to a running Chrome instead of launching one")
	rootCmd.Flags().BoolVar(&flagCfg.Headless, "headless", flagCfg.Headless,
		"Launch Chrome headless")

	// Output flags
	rootCmd.Flags().StringVar(&flagCfg.ActionLogFile, "action-log", flagCfg.ActionLogFile,
		"Action log file")
	rootCmd.Flags().StringVar(&flagCfg.EngineLogFile, "engine-log", flagCfg.EngineLogFile,
		"Chrome verbose log file (empty disables)")

	// Freeze detection flags
	rootCmd.Flags().DurationVar(&flagCfg.FreezeThreshold, "freeze-threshold", flagCfg.FreezeThreshold,
		"Heartbeat age that counts as a freeze")
	rootCmd.Flags().DurationVar(&flagCfg.HeartbeatInterval, "heartbeat-interval", flagCfg.HeartbeatInterval,
		"UI loop heartbeat period")
	rootCmd.Flags().DurationVar(&flagCfg.WatchdogInterval, "watchdog-interval", flagCfg.WatchdogInterval,
		"Watchdog polling period")
	rootCmd.Flags().DurationVar(&flagCfg.WatchdogDelay, "watchdog-delay", flagCfg.WatchdogDelay,
		"Delay before the first watchdog poll")

	// Privacy flags
	rootCmd.Flags().BoolVarP(&flagCfg.Redact, "redact", "r", flagCfg.Redact,
		"Redact sensitive values in page messages")
	rootCmd.Flags().Bool("no-redact", false, "Disable redaction")

	// Diagnostics flags
	rootCmd.Flags().StringVar(&flagCfg.StatusAddr, "status-addr", flagCfg.StatusAddr,
		"Serve /healthz and /debug/stall on this address")
	rootCmd.Flags().StringVar(&flagCfg.TraceFile, "trace", flagCfg.TraceFile,
		"Write freeze spans to this file")

	rootCmd.Version = config.Version

	rootCmd.AddCommand(controlCmd)
}

// loadConfig builds the effective configuration: defaults, then the config
// file if any, then every flag the user set explicitly.
func loadConfig(path string, flags *config.Config, changed func(name string) bool) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if changed("port") {
		cfg.ChromePort = flags.ChromePort
	}
	if changed("attach") {
		cfg.Attach = flags.Attach
	}
	if changed("headless") {
		cfg.Headless = flags.Headless
	}
	if changed("action-log") {
		cfg.ActionLogFile = flags.ActionLogFile
	}
	if changed("engine-log") {
		cfg.EngineLogFile = flags.EngineLogFile
	}
	if changed("freeze-threshold") {
		cfg.FreezeThreshold = flags.FreezeThreshold
	}
	if changed("heartbeat-interval") {
		cfg.HeartbeatInterval = flags.HeartbeatInterval
	}
	if changed("watchdog-interval") {
		cfg.WatchdogInterval = flags.WatchdogInterval
	}
	if changed("watchdog-delay") {
		cfg.WatchdogDelay = flags.WatchdogDelay
	}
	if changed("redact") {
		cfg.Redact = flags.Redact
	}
	if changed("no-redact") {
		cfg.Redact = false
	}
	if changed("status-addr") {
		cfg.StatusAddr = flags.StatusAddr
	}
	if changed("trace") {
		cfg.TraceFile = flags.TraceFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolvePaths makes the configured log paths absolute and creates their
// directories.
func resolvePaths(cfg *config.Config) error {
	paths := []*string{&cfg.ActionLogFile, &cfg.EngineLogFile, &cfg.TraceFile}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		resolved, err := logger.ResolveLogPath(*p)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", *p, err)
		}
		if err := logger.EnsureLogDir(resolved); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		*p = resolved
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	noRedact, _ := cmd.Flags().GetBool("no-redact")
	changed := func(name string) bool {
		if name == "no-redact" {
			return noRedact
		}
		return cmd.Flags().Changed(name)
	}

	cfg, err := loadConfig(configPath, flagCfg, changed)
	if err != nil {
		return err
	}
	if err := resolvePaths(cfg); err != nil {
		return err
	}

	actionLog := logger.NewActionLogger(cfg.ActionLogFile)
	defer func() {
		if err := actionLog.Close(); err != nil {
			log.Printf("Error closing action log: %v", err)
		}
	}()

	relay := monitor.NewRelay(actionLog, redact.New(cfg.Redact))
	host := cdp.NewHost(cfg, relay)
	sessionID := logger.GetSessionID()

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("\nReceived shutdown signal...")
		cancel()
	}()

	if cfg.TraceFile != "" {
		traceOut, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open trace file: %w", err)
		}
		defer traceOut.Close()

		shutdown := telemetry.InitTracer(ctx, traceOut, "uiwatch")
		spans := telemetry.NewFreezeSpans(nil, sessionID)
		host.SetEpisodeObserver(spans)

		defer func() {
			spans.Close(time.Now())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Printf("Error flushing traces: %v", err)
			}
		}()
	}

	if cfg.StatusAddr != "" {
		detector := host.Detector()
		srv := status.NewServer(cfg.StatusAddr, sessionID, detector.Heartbeat(), detector.Watchdog(), host.Loop())
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("Status server error: %v", err)
			}
		}()
	}

	// Print startup info
	log.Printf("uiwatch %s (session: %s)", config.Version, sessionID)
	log.Printf("Action log: %s", cfg.ActionLogFile)
	log.Printf("Chrome port: %s", cfg.ChromePort)
	log.Printf("Freeze threshold: %s", cfg.FreezeThreshold)
	if cfg.Attach {
		log.Println("Attaching to existing Chrome...")
	} else {
		log.Println("Launching Chrome...")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- host.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			host.Stop()
			return err
		}
	case <-ctx.Done():
	}

	host.Stop()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
