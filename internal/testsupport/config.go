package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// WithGroqLimits overrides the rate limiter caps.
func WithGroqLimits(rpm, tpm, rpd int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Groq.RPMLimit = rpm
		cfg.Groq.TPMLimit = tpm
		cfg.Groq.RPDLimit = rpd
	}
}

// WithChunkTokenLimit overrides the transcript chunking threshold.
func WithChunkTokenLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Groq.ChunkTokenLimit = limit
	}
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfg := &cfgVal
	cfg.Paths.AudioDir = filepath.Join(base, "memos")
	cfg.Paths.VaultDir = filepath.Join(base, "vault")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Groq.APIKey = "gsk_test"

	for _, opt := range opts {
		opt(cfg)
	}

	for _, dir := range []string{cfg.Paths.AudioDir, cfg.InboxPath(), cfg.Paths.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return cfg
}
