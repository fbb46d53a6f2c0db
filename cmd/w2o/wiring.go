package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/config"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/logging"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/notes"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/pipeline"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/ratelimit"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services/groq"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services/whisper"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/vault"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/vaultindex"
)

// runtime bundles everything a processing command needs.
type runtime struct {
	runner  *pipeline.Runner
	store   *vaultindex.Store
	limiter *ratelimit.Limiter
}

func (r *runtime) Close() {
	if r.store != nil {
		r.store.Close()
	}
}

func buildRuntime(cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	store, err := vaultindex.Open(cfg.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("open vault index: %w", err)
	}

	limiter, err := ratelimit.New(cfg.Groq.RPMLimit, cfg.Groq.TPMLimit, cfg.Groq.RPDLimit)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("configure rate limiter: %w", err)
	}

	renderer, err := notes.NewRenderer()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load note templates: %w", err)
	}

	transcriber := whisper.NewService(whisper.Config{
		Model:   cfg.Whisper.Model,
		Timeout: time.Duration(cfg.Whisper.TimeoutSeconds) * time.Second,
	})
	transcriber.WithLogger(logger)
	client := groq.NewClient(groq.Config{
		APIKey:         cfg.Groq.APIKey,
		BaseURL:        cfg.Groq.BaseURL,
		Model:          cfg.Groq.Model,
		TimeoutSeconds: cfg.Groq.TimeoutSeconds,
	}, groq.WithLogger(logger))
	analyzer := groq.NewAnalyzer(client, limiter)
	inbox := vault.NewInbox(cfg.InboxPath())

	runner := pipeline.NewRunner(cfg, store, inbox, transcriber, analyzer, renderer, logger,
		pipeline.WithUsageReporter(limiter))
	return &runtime{runner: runner, store: store, limiter: limiter}, nil
}

func buildLogger(cfg *config.Config, toFile bool) (*slog.Logger, error) {
	paths := []string{"stdout"}
	if toFile {
		paths = append(paths, cfg.LogDir()+"/w2o.log")
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: paths,
	})
}
