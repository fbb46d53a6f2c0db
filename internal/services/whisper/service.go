package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/logging"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/textutil"
)

// Command names for external tools.
const (
	UVXCommand     = "uvx"
	WhisperPackage = "mlx-whisper"
	DefaultModel   = "large-v3"
)

// Config captures runtime settings for transcription.
type Config struct {
	// Model is the whisper model to use (e.g. "large-v3").
	Model string
	// Timeout bounds a single transcription run. Zero means no limit.
	Timeout time.Duration
}

// Service provides voice memo transcription.
type Service struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a transcription service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg, logger: logging.NewNop()}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithLogger attaches a logger; transcription runs are logged with whatever
// stem, stage, and run ID the request context carries.
func (s *Service) WithLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logging.NewComponentLogger(logger, "whisper")
	}
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Result contains the outcome of a transcription.
type Result struct {
	Text       string
	Language   string
	TokenCount int
}

// Transcribe runs mlx-whisper over the audio file and returns the
// transcript. workDir receives the tool's JSON output and must be writable;
// callers typically pass a per-run temporary directory.
func (s *Service) Transcribe(ctx context.Context, audioPath, workDir string) (Result, error) {
	var result Result

	if audioPath == "" {
		return result, services.Wrap(services.ErrValidation, "transcribe", "input", "audio path required", nil)
	}
	if workDir == "" {
		workDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrTransient, "transcribe", "workdir", "ensure output dir", err)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("transcribing",
		logging.String("audio", filepath.Base(audioPath)),
		logging.String("model", s.Model()))
	started := time.Now()

	args := s.buildArgs(audioPath, workDir)
	if err := s.run(ctx, UVXCommand, args...); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "mlx-whisper", "transcription run failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(workDir, baseName+".json")
	payload, err := loadPayload(jsonPath)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "output", "read transcription output", err)
	}

	result.Text = strings.TrimSpace(payload.Text)
	if result.Text == "" {
		result.Text = joinSegments(payload.Segments)
	}
	if result.Text == "" {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "output", "empty transcript", nil)
	}
	result.Language = payload.Language
	result.TokenCount = textutil.EstimateTokens(result.Text)
	logger.Info("transcription complete",
		logging.String("language", result.Language),
		logging.Int("token_estimate", result.TokenCount),
		logging.Duration("elapsed", time.Since(started)))
	return result, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (s *Service) buildArgs(audioPath, workDir string) []string {
	return []string{
		WhisperPackage,
		audioPath,
		"--model", s.Model(),
		"--output-dir", workDir,
		"--output-format", "json",
		"--verbose", "False",
	}
}

type segment struct {
	Text string `json:"text"`
}

type payload struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []segment `json:"segments"`
}

func loadPayload(jsonPath string) (payload, error) {
	var p payload
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse whisper json: %w", err)
	}
	return p, nil
}

func joinSegments(segments []segment) string {
	var parts []string
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
