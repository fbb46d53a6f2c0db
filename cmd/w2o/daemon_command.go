package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/deps"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/logging"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/workflow"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Watch the audio folder and process memos continuously",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire daemon lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another w2o daemon is already running (lock at %s)", cfg.LockPath())
			}
			defer lock.Unlock()

			logger, err := buildLogger(cfg, true)
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Defaults())
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				logger.Warn("external tools missing, transcription will fail",
					logging.String("missing", strings.Join(missing, ", ")))
			}
			rt, err := buildRuntime(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			manager := workflow.NewManager(cfg, rt.runner, logger)
			manager.Start(signalCtx)
			logger.Info("daemon started",
				logging.String("audio_dir", cfg.Paths.AudioDir),
				logging.String("inbox", cfg.InboxPath()))

			<-signalCtx.Done()
			logger.Info("shutting down")
			manager.Stop()
			return nil
		},
	}
}
