// Package logger provides the action log for uiwatch.
package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	sessionID   string
	sessionOnce sync.Once
)

// GetSessionID returns the unique session ID for this uiwatch process.
// The session ID is generated once and remains constant for the process lifetime.
func GetSessionID() string {
	sessionOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// ResolveLogPath turns a configured log path into an absolute one.
// A leading "~/" expands to the user's home directory. Absolute paths matter
// for the engine log, which the browser process resolves from its own
// working directory.
func ResolveLogPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty log path")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	return filepath.Abs(path)
}

// EnsureLogDir creates the parent directory of a log file.
func EnsureLogDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
