package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/config"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/testsupport"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := fmt.Sprintf(
		"[paths]\naudio_dir = %q\nvault_dir = %q\ndata_dir = %q\n\n[groq]\napi_key = %q\n",
		cfg.Paths.AudioDir,
		cfg.Paths.VaultDir,
		cfg.Paths.DataDir,
		cfg.Groq.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second init without --overwrite must refuse.
	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error on existing config file")
	}
}

func TestConfigShowListsSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "paths.audio_dir")
	requireContains(t, out, cfg.Paths.AudioDir)
	// The key itself must never be printed.
	requireContains(t, out, "(set)")
	if strings.Contains(out, cfg.Groq.APIKey) {
		t.Fatal("config show leaked the API key")
	}
}

func TestStatusWithEmptyAudioFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No voice memos")
	requireContains(t, out, "Rate limits")
}

func TestStatusListsPendingMemo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRecording(t, cfg, "20260301-101500", mustParseTime(t, "2026-03-01T10:15:00Z"))
	configPath := writeTestConfig(t, cfg)

	out, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "20260301-101500")
	requireContains(t, out, "pending")
}

func TestRunWithNoMemos(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, err := runCLI(t, configPath, "run")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "No new voice memos")
}

func TestDBWipeRequiresForce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	if _, err := runCLI(t, configPath, "db", "wipe"); err == nil {
		t.Fatal("expected refusal without --force")
	}
	out, err := runCLI(t, configPath, "db", "wipe", "--force")
	if err != nil {
		t.Fatalf("db wipe --force: %v", err)
	}
	requireContains(t, out, "wiped")
}
