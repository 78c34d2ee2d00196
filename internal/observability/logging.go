// Package observability provides logging setup and pipeline metrics.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LogLevel is the configured verbosity. Silent suppresses all output.
type LogLevel string

const (
	LevelDebug  LogLevel = "debug"
	LevelInfo   LogLevel = "info"
	LevelWarn   LogLevel = "warn"
	LevelError  LogLevel = "error"
	LevelSilent LogLevel = "silent"
)

// ParseLevel validates a configured log level string. The empty string
// defaults to info.
func ParseLevel(s string) (LogLevel, error) {
	switch LogLevel(s) {
	case "":
		return LevelInfo, nil
	case LevelDebug, LevelInfo, LevelWarn, LevelError, LevelSilent:
		return LogLevel(s), nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger builds a text logger at the given level writing to stderr.
// LevelSilent discards everything.
func NewLogger(level LogLevel) *slog.Logger {
	if level == LevelSilent {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var l slog.Level
	switch level {
	case LevelDebug:
		l = slog.LevelDebug
	case LevelWarn:
		l = slog.LevelWarn
	case LevelError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
