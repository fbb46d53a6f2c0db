package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	return slog.New(newConsoleHandler(buf, lvl)), buf
}

func TestConsoleHandlerFormatsLine(t *testing.T) {
	logger, buf := newBufferLogger(t)
	logger.Info("note written", String("path", "/vault/inbox/x.md"), Int("bytes", 42))

	line := buf.String()
	for _, fragment := range []string{"INFO", "note written", "path=/vault/inbox/x.md", "bytes=42"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in output %q", fragment, line)
		}
	}
}

func TestConsoleHandlerPullsComponentForward(t *testing.T) {
	logger, buf := newBufferLogger(t)
	NewComponentLogger(logger, "watcher").Info("scan complete")

	line := buf.String()
	if !strings.Contains(line, "watcher: scan complete") {
		t.Fatalf("component not promoted into message prefix: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not repeat as an attribute: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	logger, buf := newBufferLogger(t)
	logger.Warn("failed", Error(errors.New("boom with spaces")))
	if !strings.Contains(buf.String(), `error="boom with spaces"`) {
		t.Fatalf("expected quoted error value, got %q", buf.String())
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if parseLevel("nonsense") != slog.LevelInfo {
		t.Fatal("unknown level should fall back to info")
	}
	if parseLevel("debug") != slog.LevelDebug {
		t.Fatal("debug should parse")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should report disabled for all levels")
	}
}
