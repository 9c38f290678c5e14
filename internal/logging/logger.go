package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// Level names accepted by logging.level.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the active log file inside the log directory.
const LogFileName = "dna.log"

// Logger writes JSON lines through slog. Child loggers share the parent's
// handler and output; it is safe for concurrent use.
type Logger struct {
	sl     *slog.Logger
	closer io.Closer
}

// NewLogger creates a Logger that writes to {logDir}/dna.log, rotating
// according to rotation. Messages below level are dropped.
func NewLogger(logDir string, level string, rotation RotationConfig) (*Logger, error) {
	if logDir == "" {
		return nil, fmt.Errorf("logging: log directory is required")
	}
	rw, err := NewRotatingWriter(filepath.Join(logDir, LogFileName), rotation)
	if err != nil {
		return nil, err
	}
	l := NewLoggerWithWriter(rw, level)
	l.closer = rw
	return l, nil
}

// NewLoggerWithWriter creates a Logger writing to w.
// Closing the returned Logger does not close w.
func NewLoggerWithWriter(w io.Writer, level string) *Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(ParseLevel(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return &Logger{sl: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return &Logger{sl: slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// ParseLevel normalizes level to one of the Level constants, defaulting to INFO.
func ParseLevel(level string) string {
	switch up := strings.ToUpper(strings.TrimSpace(level)); up {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return up
	default:
		return LevelInfo
	}
}

// WithCommand returns a child Logger tagged with the command name.
func (l *Logger) WithCommand(name string) *Logger {
	return l.With("command", name)
}

// WithNode returns a child Logger tagged with a decision id.
func (l *Logger) WithNode(id string) *Logger {
	return l.With("node", id)
}

// With returns a child Logger carrying the given key-value pairs.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{sl: l.sl.With(args...), closer: l.closer}
}

// Debug logs msg at DEBUG with alternating key-value args.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs msg at INFO.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs msg at WARN.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs msg at ERROR.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	l.sl.Log(context.Background(), level, msg, args...)
}

// Close closes the log file if this Logger opened it.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
