package config

import (
	"fmt"
	"strings"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services"
)

// Validate checks structural configuration problems. Credential presence is
// checked separately by ValidateCredentials so read-only commands work
// without an API key. All failures carry services.ErrConfiguration.
func (c *Config) Validate() error {
	for _, validate := range []func() error{
		c.Paths.validate,
		c.Whisper.validate,
		c.Groq.validate,
		c.Workflow.validate,
		c.Logging.validate,
	} {
		if err := validate(); err != nil {
			return fmt.Errorf("%w: %v", services.ErrConfiguration, err)
		}
	}
	return nil
}

// ValidateCredentials reports an error when settings required to reach the
// LLM service are missing.
func (c *Config) ValidateCredentials() error {
	if c.Groq.APIKey == "" {
		return fmt.Errorf("%w: groq.api_key is required; set it in the config file or GROQ_API_KEY", services.ErrConfiguration)
	}
	return nil
}

func (p *Paths) validate() error {
	if p.AudioDir == "" {
		return fmt.Errorf("paths.audio_dir must not be empty")
	}
	if p.VaultDir == "" {
		return fmt.Errorf("paths.vault_dir must not be empty")
	}
	if p.DataDir == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}
	if strings.Contains(p.InboxDir, "..") {
		return fmt.Errorf("paths.inbox_dir must stay inside the vault")
	}
	return nil
}

func (w *Whisper) validate() error {
	if w.Model == "" {
		return fmt.Errorf("whisper.model must not be empty")
	}
	if w.TimeoutSeconds <= 0 {
		return fmt.Errorf("whisper.timeout_seconds must be positive, got %d", w.TimeoutSeconds)
	}
	return nil
}

func (g *Groq) validate() error {
	if g.BaseURL == "" {
		return fmt.Errorf("groq.base_url must not be empty")
	}
	if g.Model == "" {
		return fmt.Errorf("groq.model must not be empty")
	}
	if g.TimeoutSeconds <= 0 {
		return fmt.Errorf("groq.timeout_seconds must be positive, got %d", g.TimeoutSeconds)
	}
	if g.RPMLimit <= 0 {
		return fmt.Errorf("groq.rpm_limit must be positive, got %d", g.RPMLimit)
	}
	if g.TPMLimit <= 0 {
		return fmt.Errorf("groq.tpm_limit must be positive, got %d", g.TPMLimit)
	}
	if g.RPDLimit <= 0 {
		return fmt.Errorf("groq.rpd_limit must be positive, got %d", g.RPDLimit)
	}
	if g.ChunkTokenLimit <= 0 {
		return fmt.Errorf("groq.chunk_token_limit must be positive, got %d", g.ChunkTokenLimit)
	}
	if g.ChunkTokenLimit > g.TPMLimit {
		return fmt.Errorf("groq.chunk_token_limit (%d) exceeds groq.tpm_limit (%d); chunks could never acquire capacity", g.ChunkTokenLimit, g.TPMLimit)
	}
	return nil
}

func (w *Workflow) validate() error {
	if w.PollInterval <= 0 {
		return fmt.Errorf("workflow.poll_interval must be positive, got %d", w.PollInterval)
	}
	if w.ErrorRetryInterval <= 0 {
		return fmt.Errorf("workflow.error_retry_interval must be positive, got %d", w.ErrorRetryInterval)
	}
	return nil
}

func (l *Logging) validate() error {
	switch l.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", l.Format)
	}
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", l.Level)
	}
	return nil
}
