package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/config"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/language"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/logging"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/memo"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/notes"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/ratelimit"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services/groq"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services/whisper"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/transcache"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/vault"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/vaultindex"
)

// Transcriber converts an audio file into text. Implemented by
// *whisper.Service.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, workDir string) (whisper.Result, error)
}

// Analyzer produces the structured analysis for a transcript. Implemented
// by *groq.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, req groq.AnalyzeRequest) (groq.Analysis, error)
}

// UsageReporter exposes rate limiter occupancy for diagnostics. Implemented
// by *ratelimit.Limiter.
type UsageReporter interface {
	Snapshot() ratelimit.Usage
}

// Runner executes pipeline runs over the watched audio folder.
type Runner struct {
	cfg         *config.Config
	store       *vaultindex.Store
	inbox       *vault.Inbox
	transcriber Transcriber
	analyzer    Analyzer
	renderer    *notes.Renderer
	logger      *slog.Logger
	usage       UsageReporter
}

// Option adjusts runner construction.
type Option func(*Runner)

// WithUsageReporter attaches a rate limiter snapshot source; occupancy is
// logged after every analysis.
func WithUsageReporter(usage UsageReporter) Option {
	return func(r *Runner) { r.usage = usage }
}

// NewRunner wires a runner from its collaborators.
func NewRunner(cfg *config.Config, store *vaultindex.Store, inbox *vault.Inbox, transcriber Transcriber, analyzer Analyzer, renderer *notes.Renderer, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:         cfg,
		store:       store,
		inbox:       inbox,
		transcriber: transcriber,
		analyzer:    analyzer,
		renderer:    renderer,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WatchResult is the tagged outcome of the watch stage: either new work
// with the chosen recording, or none.
type WatchResult struct {
	NewWork   bool
	Recording memo.Recording
}

// Outcome reports what one Run did.
type Outcome struct {
	// Processed is false when the watch stage found nothing new.
	Processed bool
	Context   *ProcessingContext
}

// Run executes one full pipeline pass: pick the oldest unprocessed memo and
// carry it through every stage. Returns Outcome.Processed == false when no
// new work exists. A stage failure returns the partial context alongside
// the error; durable side effects from completed stages stay in place for
// the next attempt.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	pc := &ProcessingContext{
		RunID:  uuid.NewString(),
		Status: StatusWatching,
	}
	ctx = services.WithRunID(ctx, pc.RunID)
	logger := r.logger.With(logging.String(logging.FieldRunID, pc.RunID))

	watched, err := r.watch(ctx, pc)
	if err != nil {
		return Outcome{Context: pc}, r.fail(pc, "watch", err)
	}
	if !watched.NewWork {
		pc.Status = StatusSkipped
		logger.Debug("no new voice memos")
		return Outcome{Processed: false, Context: pc}, nil
	}

	pc.Recording = watched.Recording
	pc.Metadata = memo.ParseMetadata(watched.Recording.Path)
	if pc.Metadata.Source == "fallback" {
		pc.Advise("no sidecar for %s, metadata from filename", pc.Stem())
	}
	ctx = services.WithStem(ctx, pc.Stem())
	logger = logger.With(logging.String(logging.FieldStem, pc.Stem()))
	logger.Info("new voice memo",
		logging.String("category", pc.Metadata.Category),
		logging.String("template", pc.Metadata.TemplateKey))

	type stageFunc struct {
		name   string
		status Status
		fn     func(context.Context, *ProcessingContext) error
	}
	stages := []stageFunc{
		{"transcribe", StatusTranscribing, r.transcribe},
		{"index-lookup", StatusIndexing, r.lookupIndex},
		{"analyze", StatusAnalyzing, r.analyze},
		{"render", StatusRendering, r.render},
		{"persist", StatusPersisting, r.persist},
	}
	for _, stage := range stages {
		pc.Status = stage.status
		stageCtx := services.WithStage(ctx, stage.name)
		started := time.Now()
		if err := stage.fn(stageCtx, pc); err != nil {
			return Outcome{Processed: true, Context: pc}, r.fail(pc, stage.name, err)
		}
		logger.Debug("stage complete",
			logging.String(logging.FieldStage, stage.name),
			logging.Duration("elapsed", time.Since(started)))
	}

	pc.Status = StatusDone
	logger.Info("memo processed",
		logging.String("note", pc.NotePath),
		logging.Bool("transcript_cached", pc.Cached),
		logging.Int("advisories", len(pc.Advisories)))
	return Outcome{Processed: true, Context: pc}, nil
}

func (r *Runner) fail(pc *ProcessingContext, stage string, err error) error {
	pc.Status = StatusFailed
	pc.FailedStage = stage
	r.logger.Error("pipeline run failed",
		logging.String(logging.FieldStage, stage),
		logging.String(logging.FieldStem, pc.Stem()),
		logging.Error(err))
	return err
}

// watch scans the audio folder oldest-first and returns the first recording
// that is not already done. "Done" is the OR of the index record and an
// inbox note carrying the stem in its filename; either alone is enough.
func (r *Runner) watch(ctx context.Context, pc *ProcessingContext) (WatchResult, error) {
	recordings, err := memo.Scan(r.cfg.Paths.AudioDir)
	if err != nil {
		return WatchResult{}, services.Wrap(services.ErrNotFound, "watch", "scan", "audio folder unavailable", err)
	}
	for _, rec := range recordings {
		if !r.isDone(ctx, pc, rec.Stem) {
			return WatchResult{NewWork: true, Recording: rec}, nil
		}
	}
	return WatchResult{}, nil
}

// isDone checks the two independent completion signals: the index record
// and a note filename carrying the stem. Either signal alone marks the memo
// done, so a failing check falls through to the other rather than aborting
// the run.
func (r *Runner) isDone(ctx context.Context, pc *ProcessingContext, stem string) bool {
	processed, err := r.store.IsProcessed(ctx, stem)
	if err != nil {
		pc.Advise("processed lookup failed for %s: %v", stem, err)
	} else if processed {
		return true
	}
	exists, err := r.inbox.NoteExists(stem)
	if err != nil {
		pc.Advise("inbox scan failed for %s: %v", stem, err)
		return false
	}
	return exists
}

// transcribe loads the cached transcript when the sidecar pair exists,
// otherwise runs the transcription engine and commits the result to the
// cache before returning.
func (r *Runner) transcribe(ctx context.Context, pc *ProcessingContext) error {
	if transcache.Has(pc.Recording.Path) {
		entry, err := transcache.Load(pc.Recording.Path)
		if err == nil {
			pc.Cached = true
			pc.Transcript = entry.Text
			pc.Language = entry.Language
			pc.TokenCount = entry.TokenCount
			return nil
		}
		if !errors.Is(err, transcache.ErrMiss) {
			// Unreadable cache: re-transcribe rather than fail the run.
			pc.Advise("transcript cache unreadable for %s: %v", pc.Stem(), err)
		}
	}

	workDir := filepath.Join(r.cfg.Paths.DataDir, "work", pc.Stem())
	result, err := r.transcriber.Transcribe(ctx, pc.Recording.Path, workDir)
	if err != nil {
		return err
	}
	pc.Transcript = result.Text
	pc.Language = result.Language
	pc.TokenCount = result.TokenCount

	if err := transcache.Write(pc.Recording.Path, transcache.Entry{
		Text:       result.Text,
		Language:   result.Language,
		TokenCount: result.TokenCount,
	}); err != nil {
		// The transcription succeeded; losing the cache only costs a redo
		// if a later stage fails.
		pc.Advise("transcript cache write failed for %s: %v", pc.Stem(), err)
	}
	return nil
}

// lookupIndex refreshes the vault index and loads the known tag and note
// sets for link suggestions. Index trouble here degrades suggestions, it
// does not stop the memo.
func (r *Runner) lookupIndex(ctx context.Context, pc *ProcessingContext) error {
	if _, err := r.store.HarvestVault(ctx, r.cfg.Paths.VaultDir); err != nil {
		pc.Advise("vault harvest failed: %v", err)
	}
	tags, err := r.store.AllTags(ctx)
	if err != nil {
		pc.Advise("tag lookup failed: %v", err)
	}
	notes, err := r.store.AllNotes(ctx)
	if err != nil {
		pc.Advise("note lookup failed: %v", err)
	}
	pc.ExistingTags = tags
	pc.ExistingNotes = notes
	return nil
}

func (r *Runner) analyze(ctx context.Context, pc *ProcessingContext) error {
	analysis, err := r.analyzer.Analyze(ctx, groq.AnalyzeRequest{
		Transcript:      pc.Transcript,
		TokenCount:      pc.TokenCount,
		ExistingTags:    pc.ExistingTags,
		ExistingNotes:   pc.ExistingNotes,
		MetadataJSON:    metadataJSON(pc.Metadata),
		ChunkTokenLimit: r.cfg.Groq.ChunkTokenLimit,
	})
	if err != nil {
		return err
	}
	pc.Analysis = analysis
	if r.usage != nil {
		snapshot := r.usage.Snapshot()
		r.logger.Info("rate limiter usage",
			logging.String(logging.FieldStem, pc.Stem()),
			logging.String("usage", snapshot.String()),
			logging.Int("tokens_reserved", snapshot.TokensReserved),
			logging.Int("tokens_reported", snapshot.TokensReported))
	}
	return nil
}

func (r *Runner) render(ctx context.Context, pc *ProcessingContext) error {
	rendered, err := r.renderer.Render(pc.Analysis, pc.Metadata, pc.Transcript, language.DisplayName(pc.Language))
	if err != nil {
		return services.Wrap(services.ErrValidation, "render", "template", "render note", err)
	}
	pc.Rendered = rendered
	return nil
}

// persist commits the rendered note: write to the inbox, then record the
// note and the processed stem in the index. Once the note file exists the
// memo counts as done through the filesystem check, so index trouble after
// that point is advisory.
func (r *Runner) persist(ctx context.Context, pc *ProcessingContext) error {
	notePath, err := r.inbox.WriteNote(pc.Rendered.DatePrefix, pc.Rendered.Slug, pc.Rendered.Markdown)
	if err != nil {
		return services.Wrap(services.ErrTransient, "persist", "inbox", "write note", err)
	}
	pc.NotePath = notePath

	noteStem := stemOf(notePath)
	if err := r.store.UpsertNote(ctx, noteStem, pc.Analysis.Title, notePath); err != nil {
		pc.Advise("index note record failed: %v", err)
	}
	if err := r.store.UpsertTags(ctx, noteStem, pc.Analysis.Tags); err != nil {
		pc.Advise("index tag records failed: %v", err)
	}
	if err := r.store.UpsertLinks(ctx, noteStem, pc.Analysis.SuggestedLinks); err != nil {
		pc.Advise("index link records failed: %v", err)
	}
	if err := r.store.MarkProcessed(ctx, pc.Stem()); err != nil {
		pc.Advise("processed record failed for %s: %v", pc.Stem(), err)
	}
	return nil
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func metadataJSON(meta memo.Metadata) string {
	payload := map[string]any{
		"title":    meta.Title,
		"category": meta.Category,
		"date":     meta.Date.Format(time.RFC3339),
		"duration": meta.DurationDisplay(),
	}
	if meta.Location != "" {
		payload["location"] = meta.Location
	}
	if meta.Notes != "" {
		payload["notes"] = meta.Notes
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
