package pipeline

import (
	"fmt"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/memo"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/notes"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services/groq"
)

// Status tracks how far a pipeline run has progressed.
type Status string

const (
	StatusPending      Status = "pending"
	StatusWatching     Status = "watching"
	StatusSkipped      Status = "skipped"
	StatusTranscribing Status = "transcribing"
	StatusIndexing     Status = "indexing"
	StatusAnalyzing    Status = "analyzing"
	StatusRendering    Status = "rendering"
	StatusPersisting   Status = "persisting"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
)

// ProcessingContext is the mutable record threaded through every stage of
// one run. It is owned by that run and never shared.
type ProcessingContext struct {
	RunID     string
	Recording memo.Recording
	Metadata  memo.Metadata

	// Cached is set when the transcript came from the sidecar cache
	// instead of a fresh transcription.
	Cached     bool
	Transcript string
	Language   string
	TokenCount int

	ExistingTags  []string
	ExistingNotes map[string]string

	Analysis groq.Analysis
	Rendered notes.Rendered
	NotePath string

	Status      Status
	FailedStage string
	// Advisories collects non-fatal problems; the run continues past them.
	Advisories []string
}

// Advise records a non-fatal problem on the context.
func (pc *ProcessingContext) Advise(format string, args ...any) {
	pc.Advisories = append(pc.Advisories, fmt.Sprintf(format, args...))
}

// Stem returns the recording's stable identifier.
func (pc *ProcessingContext) Stem() string {
	return pc.Recording.Stem
}
