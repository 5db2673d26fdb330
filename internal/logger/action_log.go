package logger

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TimestampLayout is the local-time prefix of every action log line.
const TimestampLayout = "2006-01-02 15:04:05.000"

// lineBreaks folds multi-line messages onto a single log line.
var lineBreaks = strings.NewReplacer("\r\n", " | ", "\n", " | ", "\r", " | ")

// ActionLogger appends timestamped lines to a single flat file.
//
// The file is opened for each entry, so a log that is deleted or rotated
// while the process runs is recreated by the next call. Write failures never
// reach the caller: they are reported through the diagnostic function.
type ActionLogger struct {
	path string
	mu   sync.Mutex

	now  func() time.Time
	diag func(format string, args ...interface{})
}

// NewActionLogger creates a logger that appends to path.
func NewActionLogger(path string) *ActionLogger {
	return &ActionLogger{
		path: path,
		now:  time.Now,
		diag: log.Printf,
	}
}

// SetDiagnostics replaces the sink that receives write failures.
func (l *ActionLogger) SetDiagnostics(diag func(format string, args ...interface{})) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.diag = diag
}

// Path returns the log file path.
func (l *ActionLogger) Path() string {
	return l.path
}

// FormatEntry renders one log line, including the trailing newline.
func FormatEntry(t time.Time, message string) string {
	return "[" + t.Format(TimestampLayout) + "] " + lineBreaks.Replace(message) + "\n"
}

// Log appends message as one line.
func (l *ActionLogger) Log(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.appendEntry(FormatEntry(l.now(), message)); err != nil {
		l.diag("Failed to write to log file: %v", err)
	}
}

// appendEntry opens the file, creating it and its directory if needed,
// writes entry and closes it again.
func (l *ActionLogger) appendEntry(entry string) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	// One Write per entry keeps lines whole under O_APPEND.
	if _, err := f.WriteString(entry); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Close waits for an in-flight Log call to finish. No handle is held
// between calls, so there is nothing else to release.
func (l *ActionLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return nil
}
