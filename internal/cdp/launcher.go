// Package cdp hosts the browser engine over the Chrome DevTools Protocol.
package cdp

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync/atomic"
)

// LaunchOptions configures a launched Chrome instance.
type LaunchOptions struct {
	Port     string
	Headless bool
	// EngineLogFile receives Chrome's own verbose log. Empty disables it.
	EngineLogFile string
}

// ChromeProcess represents a launched Chrome instance.
type ChromeProcess struct {
	Cmd         *exec.Cmd
	Port        string
	UserDataDir string

	done     chan struct{}
	exitCode atomic.Int64
	stopping atomic.Bool
}

// LaunchChrome starts a new Chrome instance with remote debugging enabled.
func LaunchChrome(opts LaunchOptions) (*ChromeProcess, error) {
	chromePath := findChrome()
	if chromePath == "" {
		return nil, errors.New("chrome executable not found")
	}

	userDataDir, err := os.MkdirTemp("", "uiwatch_chrome_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	if opts.EngineLogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.EngineLogFile), 0755); err != nil {
			_ = os.RemoveAll(userDataDir)
			return nil, fmt.Errorf("failed to create engine log directory: %w", err)
		}
	}

	cmd := exec.Command(chromePath, chromeArgs(opts, userDataDir)...)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(userDataDir)
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	cp := &ChromeProcess{
		Cmd:         cmd,
		Port:        opts.Port,
		UserDataDir: userDataDir,
		done:        make(chan struct{}),
	}
	go cp.wait()

	return cp, nil
}

// chromeArgs builds the command line for a hosted Chrome instance.
func chromeArgs(opts LaunchOptions, userDataDir string) []string {
	args := []string{
		"--remote-debugging-port=" + opts.Port,
		"--user-data-dir=" + userDataDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-features=TranslateUI",
		"--disable-background-networking",
		"--disable-sync",
	}

	if opts.EngineLogFile != "" {
		args = append(args,
			"--enable-logging",
			"--v=1",
			"--log-file="+opts.EngineLogFile,
		)
	}

	if opts.Headless {
		args = append(args, "--headless=new")
	}

	return args
}

func (cp *ChromeProcess) wait() {
	defer close(cp.done)

	err := cp.Cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		cp.exitCode.Store(0)
	case errors.As(err, &exitErr):
		cp.exitCode.Store(int64(exitErr.ExitCode()))
	default:
		cp.exitCode.Store(-1)
	}
}

// Done is closed once the process has exited. It is nil for a process
// that was never started.
func (cp *ChromeProcess) Done() <-chan struct{} {
	return cp.done
}

// ExitCode returns the exit code once Done is closed.
func (cp *ChromeProcess) ExitCode() int {
	return int(cp.exitCode.Load())
}

// Stopping reports whether Stop has been called, so an exit seen on Done
// can be told apart from a crash.
func (cp *ChromeProcess) Stopping() bool {
	return cp.stopping.Load()
}

// Stop terminates the Chrome process and cleans up.
func (cp *ChromeProcess) Stop() error {
	cp.stopping.Store(true)

	if cp.Cmd != nil && cp.Cmd.Process != nil {
		if err := cp.Cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("failed to kill chrome: %w", err)
		}
		if cp.done != nil {
			<-cp.done
		}
	}

	if cp.UserDataDir != "" {
		_ = os.RemoveAll(cp.UserDataDir)
	}

	return nil
}

// PID returns the process ID of the Chrome instance.
func (cp *ChromeProcess) PID() int {
	if cp.Cmd != nil && cp.Cmd.Process != nil {
		return cp.Cmd.Process.Pid
	}
	return 0
}

// findChrome locates the Chrome executable on the system.
func findChrome() string {
	var paths []string

	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			filepath.Join(os.Getenv("HOME"), "Applications/Google Chrome.app/Contents/MacOS/Google Chrome"),
		}
	case "linux":
		paths = []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/usr/bin/microsoft-edge",
			"/snap/bin/chromium",
		}
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		programFiles := os.Getenv("PROGRAMFILES")
		programFilesX86 := os.Getenv("PROGRAMFILES(X86)")

		paths = []string{
			filepath.Join(programFilesX86, "Microsoft", "Edge", "Application", "msedge.exe"),
			filepath.Join(programFiles, "Microsoft", "Edge", "Application", "msedge.exe"),
			filepath.Join(localAppData, "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(programFiles, "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(programFilesX86, "Google", "Chrome", "Application", "chrome.exe"),
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chrome", "chromium", "msedge"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}
