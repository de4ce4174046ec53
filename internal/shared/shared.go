// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewFileLogger creates a logger that appends to the file at path, creating parent directories as needed.
//
// Used while a full-screen program owns the terminal. The caller closes the returned file.
func NewFileLogger(path string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewLogger(f), f, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// ConfigureLogger applies the level and format from lc to l.
func ConfigureLogger(l *log.Logger, lc LogConfig) error {
	if lc.Level != "" {
		lvl, err := log.ParseLevel(lc.Level)
		if err != nil {
			return fmt.Errorf("%w: log level %q", ErrInvalidConfig, lc.Level)
		}
		SetLogLevel(l, lvl)
	}

	switch strings.ToLower(lc.Format) {
	case "", "text":
		l.SetFormatter(log.TextFormatter)
	case "json":
		l.SetFormatter(log.JSONFormatter)
	case "logfmt":
		l.SetFormatter(log.LogfmtFormatter)
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, lc.Format)
	}
	return nil
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// IsID reports whether s is a well-formed UUID.
func IsID(s string) bool {
	return uuid.Validate(s) == nil
}
