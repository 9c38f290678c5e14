package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates log file in log directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")

		logger, err := NewLogger(dir, LevelDebug, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if _, err := os.Stat(filepath.Join(dir, LogFileName)); err != nil {
			t.Errorf("log file was not created: %v", err)
		}
	})

	t.Run("rejects empty directory", func(t *testing.T) {
		if _, err := NewLogger("", LevelInfo, DefaultRotationConfig()); err == nil {
			t.Error("expected error for empty directory")
		}
	})
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines at WARN, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"level":"WARN"`) {
		t.Errorf("first line = %s, want WARN", lines[0])
	}
}

func TestContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, LevelInfo)

	logger.WithCommand("set").WithNode("DEC-002").With("field", "state").Info("field updated", "to", "committed")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}

	want := map[string]string{
		"msg":     "field updated",
		"command": "set",
		"node":    "DEC-002",
		"field":   "state",
		"to":      "committed",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("entry[%q] = %v, want %q", k, entry[k], v)
		}
	}
}

func TestChildLoggerDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithWriter(&buf, LevelInfo)
	_ = parent.WithNode("DEC-001")

	parent.Info("plain")
	if strings.Contains(buf.String(), "DEC-001") {
		t.Error("parent logger picked up child attribute")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"Warn":    LevelWarn,
		"error":   LevelError,
		"verbose": LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Error("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRotatingWriterRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LogFileName)

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer rw.Close()

	chunk := []byte(strings.Repeat("x", 400*1024) + "\n")
	for i := 0; i < 8; i++ {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	for _, name := range []string{LogFileName, LogFileName + ".1", LogFileName + ".2"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, LogFileName+".3")); !os.IsNotExist(err) {
		t.Errorf("expected only 2 backups, found %s.3", LogFileName)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() > 1024*1024 {
		t.Errorf("active log size = %d, exceeds limit", info.Size())
	}
}

func TestRotatingWriterClose(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), "a.log"), RotationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := rw.Write([]byte("late")); err == nil {
		t.Error("Write after Close should fail")
	}
}

func TestRotatingWriterConcurrency(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), "c.log"), RotationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer rw.Close()

	logger := NewLoggerWithWriter(rw, LevelInfo)
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 20; j++ {
				logger.Info("concurrent", "worker", fmt.Sprint(n), "i", j)
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	data, err := os.ReadFile(rw.FilePath())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 200 {
		t.Errorf("got %d lines, want 200", len(lines))
	}
}
