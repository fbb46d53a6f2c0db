package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if path == "" {
		t.Fatal("expected resolved path even for missing file")
	}
	if cfg.Groq.RPMLimit != defaultRPMLimit {
		t.Fatalf("rpm_limit = %d, want default %d", cfg.Groq.RPMLimit, defaultRPMLimit)
	}
	if cfg.Workflow.PollInterval != defaultPollInterval {
		t.Fatalf("poll_interval = %d, want default %d", cfg.Workflow.PollInterval, defaultPollInterval)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
audio_dir = "` + filepath.Join(dir, "memos") + `"
vault_dir = "` + filepath.Join(dir, "vault") + `"
inbox_dir = "  Inbox  "
data_dir = "` + filepath.Join(dir, "data") + `"

[groq]
api_key = "gsk_test"
rpm_limit = 5
tpm_limit = 9000
chunk_token_limit = 4000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Paths.InboxDir != "Inbox" {
		t.Fatalf("inbox_dir = %q, want trimmed %q", cfg.Paths.InboxDir, "Inbox")
	}
	if cfg.Groq.RPMLimit != 5 {
		t.Fatalf("rpm_limit = %d, want 5", cfg.Groq.RPMLimit)
	}
	// Untouched sections keep their defaults.
	if cfg.Whisper.Model != defaultWhisperModel {
		t.Fatalf("whisper.model = %q, want default", cfg.Whisper.Model)
	}
	want := filepath.Join(cfg.Paths.VaultDir, "Inbox")
	if cfg.InboxPath() != want {
		t.Fatalf("InboxPath = %q, want %q", cfg.InboxPath(), want)
	}
	if filepath.Base(cfg.IndexPath()) != "w2o.db" {
		t.Fatalf("IndexPath = %q, want w2o.db under data dir", cfg.IndexPath())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "zero rpm",
			content: "[groq]\nrpm_limit = 0\n",
			wantErr: "rpm_limit",
		},
		{
			name:    "chunk larger than tpm",
			content: "[groq]\ntpm_limit = 1000\nchunk_token_limit = 2000\n",
			wantErr: "chunk_token_limit",
		},
		{
			name:    "bad log format",
			content: "[logging]\nformat = \"xml\"\n",
			wantErr: "logging.format",
		},
		{
			name:    "inbox escaping vault",
			content: "[paths]\ninbox_dir = \"../outside\"\n",
			wantErr: "inbox_dir",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, _, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateCredentials(); err == nil {
		t.Fatal("expected error with empty api key")
	}
	cfg.Groq.APIKey = "gsk_test"
	if err := cfg.ValidateCredentials(); err != nil {
		t.Fatalf("ValidateCredentials: %v", err)
	}
}

func TestValidationErrorsCarryConfigurationMarker(t *testing.T) {
	cfg := Default()
	cfg.Groq.RPMLimit = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error with zero rpm limit")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error %q should wrap services.ErrConfiguration", err)
	}

	cred := Default()
	err = cred.ValidateCredentials()
	if err == nil {
		t.Fatal("expected error with empty api key")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error %q should wrap services.ErrConfiguration", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := expandPath("~/notes")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if got != filepath.Join(home, "notes") {
		t.Fatalf("expandPath(~/notes) = %q", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[groq]") {
		t.Fatal("sample config missing [groq] section")
	}
}
