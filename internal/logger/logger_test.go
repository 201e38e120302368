package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nuttally/internal/config"
)

func TestNewWithWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.Info("hello %s", "walnut")
	l.Warning("careful")
	l.Error("broken %d", 3)

	out := buf.String()
	for _, want := range []string{"INFO    ", "hello walnut", "WARNING ", "careful", "ERROR   ", "broken 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestNewLogger_WritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(&config.Config{LogDirectory: dir})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	l.Warning("placeholder mode")

	data, err := os.ReadFile(filepath.Join(dir, "warning.log"))
	if err != nil {
		t.Fatalf("failed to read warning.log: %v", err)
	}
	if !strings.Contains(string(data), "placeholder mode") {
		t.Errorf("warning.log missing entry: %s", data)
	}

	if err := l.CleanLogs("warning"); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, "warning.log"))
	if len(data) != 0 {
		t.Errorf("expected warning.log to be empty, got %q", data)
	}
}

func TestCleanLogs_UnknownLevel(t *testing.T) {
	l := NewWithWriter(&bytes.Buffer{})
	if err := l.CleanLogs("debug"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewLogger_ClosesFilesWhenSetupFails(t *testing.T) {
	before, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("cannot count open files on this platform")
	}

	dir := t.TempDir()
	// A directory in place of error.log makes the last open fail.
	if err := os.Mkdir(filepath.Join(dir, "error.log"), 0755); err != nil {
		t.Fatalf("failed to create blocking directory: %v", err)
	}

	if _, err := NewLogger(&config.Config{LogDirectory: dir}); err == nil {
		t.Fatal("expected error when error.log cannot be opened")
	}

	after, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Fatalf("failed to list open files: %v", err)
	}
	if len(after) > len(before) {
		t.Errorf("expected no leaked files, open descriptors went from %d to %d", len(before), len(after))
	}
}
