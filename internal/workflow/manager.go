// Package workflow runs the processing loop: poll the audio folder, drive
// one pipeline run at a time, and pace retries after failures.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/config"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/logging"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/pipeline"
)

// RunExecutor drives one pipeline pass. Implemented by *pipeline.Runner.
type RunExecutor interface {
	Run(ctx context.Context) (pipeline.Outcome, error)
}

// Manager owns the poll loop lifecycle.
type Manager struct {
	cfg    *config.Config
	runner RunExecutor
	logger *slog.Logger

	// sleep is injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// Option adjusts manager construction.
type Option func(*Manager)

// WithSleeper replaces the inter-poll sleep.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) { m.sleep = sleep }
}

// NewManager builds a manager around a pipeline runner.
func NewManager(cfg *config.Config, runner RunExecutor, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:    cfg,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "workflow"),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the poll loop in the background. Calling Start on a
// running manager is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	go m.loop(loopCtx)
}

// Stop cancels the loop and waits for the in-flight run to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	cancel()
	<-done

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

// RunOnce executes a single pipeline pass outside the loop.
func (m *Manager) RunOnce(ctx context.Context) (pipeline.Outcome, error) {
	return m.runner.Run(ctx)
}

func (m *Manager) loop(ctx context.Context) {
	defer close(m.done)
	m.logger.Info("poll loop started",
		logging.Duration("poll_interval", m.cfg.Workflow.PollDuration()),
		logging.Duration("error_retry", m.cfg.Workflow.ErrorRetryDuration()))

	for {
		if ctx.Err() != nil {
			m.logger.Info("poll loop stopped")
			return
		}

		outcome, err := m.runner.Run(ctx)
		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) {
				m.logger.Info("poll loop stopped")
				return
			}
			m.logger.Error("pipeline run failed, backing off", logging.Error(err))
			if m.sleep(ctx, m.cfg.Workflow.ErrorRetryDuration()) != nil {
				return
			}
		case outcome.Processed:
			// More memos may be waiting; poll again right away.
		default:
			if m.sleep(ctx, m.cfg.Workflow.PollDuration()) != nil {
				return
			}
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
