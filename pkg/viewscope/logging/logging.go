// Package logging provides the leveled logger used across viewscope.
// Entries are written as single text or JSON lines by log/slog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"
)

// Level is a log severity.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	levelOff   = slog.Level(math.MaxInt32)
)

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", s)
}

// Logger writes leveled entries with key/value fields through a slog
// text or JSON handler. A nil Logger drops everything.
type Logger struct {
	level Level
	sl    *slog.Logger
	now   func() time.Time
}

// Discard drops everything.
var Discard = New(io.Discard, levelOff, "text")

// New creates a logger. Unknown formats fall back to text.
func New(out io.Writer, level Level, format string) *Logger {
	l := &Logger{level: level, now: time.Now}
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: l.replaceAttr}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	l.sl = slog.New(h)
	return l
}

// replaceAttr stamps entries in UTC at second precision.
func (l *Logger) replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.String(slog.TimeKey, l.now().UTC().Format(time.RFC3339))
	}
	return a
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.level
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv) }

func (l *Logger) log(level Level, msg string, kv []any) {
	if !l.Enabled(level) {
		return
	}
	l.sl.Log(context.Background(), level, msg, kv...)
}

// Open resolves an output setting: "stderr", "stdout", or a file path
// (opened for append). The returned close func is a no-op for the standard
// streams.
func Open(output string, stdout, stderr io.Writer) (io.Writer, func() error, error) {
	switch output {
	case "", "stderr":
		return stderr, func() error { return nil }, nil
	case "stdout":
		return stdout, func() error { return nil }, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output: %w", err)
	}
	return f, f.Close, nil
}
