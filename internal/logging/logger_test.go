package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

// TestParseLevel verifies known names and the info fallback.
func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

// TestNewLoggerWritesFile checks the file sink and console layout.
func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewLogger("info", path)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Debug("hidden")
	logger.Info("recording started")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, " | INFO | ") || !strings.Contains(text, "recording started") {
		t.Fatalf("log = %q", text)
	}
	if strings.Contains(text, "hidden") {
		t.Fatalf("debug line leaked at info level: %q", text)
	}
}
