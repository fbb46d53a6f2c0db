package groq

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/textutil"
)

const (
	// Reply budgets added on top of the prompt when reserving limiter
	// capacity. Generous on purpose; overcounting wastes a little window,
	// undercounting risks a real 429.
	analysisReplyBudget = 1200
	chunkReplyBudget    = 600
)

// CapacityGate admits metered calls. Satisfied by *ratelimit.Limiter.
type CapacityGate interface {
	AwaitCapacity(ctx context.Context, estimatedTokens int) error
	RecordUsage(actualTokens int)
}

// Analysis is the structured result the model produces for one memo.
type Analysis struct {
	Title            string            `json:"title"`
	Summary          string            `json:"summary"`
	KeyPoints        []string          `json:"key_points"`
	ActionItems      []string          `json:"action_items"`
	Tags             []string          `json:"tags"`
	SuggestedLinks   []string          `json:"suggested_links"`
	CategoryOverride string            `json:"category_override"`
	MermaidDiagram   string            `json:"mermaid_diagram"`
	DataviewFields   map[string]string `json:"dataview_fields"`

	TokensUsed int `json:"-"`
}

// AnalyzeRequest carries everything the analysis needs about one memo.
type AnalyzeRequest struct {
	Transcript string
	TokenCount int

	// Vault context fed to the model so tags and links stay consistent
	// with what already exists.
	ExistingTags  []string
	ExistingNotes map[string]string

	// MetadataJSON is the sidecar metadata rendered as a JSON object.
	MetadataJSON string

	// ChunkTokenLimit splits transcripts longer than this many estimated
	// tokens into per-chunk summaries plus a synthesis pass.
	ChunkTokenLimit int
}

// Analyzer runs rate-limited transcript analysis against Groq.
type Analyzer struct {
	client *Client
	gate   CapacityGate
}

// NewAnalyzer pairs a client with the capacity gate every call must pass.
func NewAnalyzer(client *Client, gate CapacityGate) *Analyzer {
	return &Analyzer{client: client, gate: gate}
}

// Analyze produces the structured analysis for a transcript, chunking when
// it exceeds the request's token limit.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (Analysis, error) {
	var empty Analysis
	if strings.TrimSpace(req.Transcript) == "" {
		return empty, services.Wrap(services.ErrValidation, "analyze", "input", "transcript is empty", nil)
	}
	tokenCount := req.TokenCount
	if tokenCount <= 0 {
		tokenCount = textutil.EstimateTokens(req.Transcript)
	}
	if req.ChunkTokenLimit > 0 && tokenCount > req.ChunkTokenLimit {
		return a.analyzeChunked(ctx, req)
	}
	return a.analyzeSingle(ctx, req, req.Transcript, AnalysisPrompt)
}

func (a *Analyzer) analyzeSingle(ctx context.Context, req AnalyzeRequest, transcript, systemPrompt string) (Analysis, error) {
	userContent := buildUserMessage(transcript, req)
	estimated := textutil.EstimateTokens(userContent) + analysisReplyBudget

	if err := a.gate.AwaitCapacity(ctx, estimated); err != nil {
		return Analysis{}, services.Wrap(services.ErrTransient, "analyze", "rate-limit", "wait for capacity", err)
	}
	completion, err := a.client.CompleteJSON(ctx, systemPrompt, userContent)
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrExternalTool, "analyze", "groq", "analysis request failed", err)
	}
	a.recordUsage(completion, estimated)

	analysis := parseAnalysis(completion.Content)
	analysis.TokensUsed = usedTokens(completion, estimated)
	return analysis, nil
}

func (a *Analyzer) analyzeChunked(ctx context.Context, req AnalyzeRequest) (Analysis, error) {
	chunks := SplitTranscript(req.Transcript, req.ChunkTokenLimit)
	summaries := make([]string, 0, len(chunks))
	totalTokens := 0

	for _, chunk := range chunks {
		estimated := textutil.EstimateTokens(chunk) + chunkReplyBudget
		if err := a.gate.AwaitCapacity(ctx, estimated); err != nil {
			return Analysis{}, services.Wrap(services.ErrTransient, "analyze", "rate-limit", "wait for chunk capacity", err)
		}
		completion, err := a.client.Complete(ctx, ChunkPrompt, chunk)
		if err != nil {
			return Analysis{}, services.Wrap(services.ErrExternalTool, "analyze", "groq", "chunk summary failed", err)
		}
		a.recordUsage(completion, estimated)
		totalTokens += usedTokens(completion, estimated)
		summaries = append(summaries, strings.TrimSpace(completion.Content))
	}

	combined := strings.Join(summaries, "\n\n---\n\n")
	analysis, err := a.analyzeSingle(ctx, req, combined, SynthesisPrompt)
	if err != nil {
		return Analysis{}, err
	}
	analysis.TokensUsed += totalTokens
	return analysis, nil
}

func (a *Analyzer) recordUsage(completion Completion, estimated int) {
	a.gate.RecordUsage(usedTokens(completion, estimated))
}

func usedTokens(completion Completion, estimated int) int {
	if completion.TotalTokens > 0 {
		return completion.TotalTokens
	}
	return estimated
}

// buildUserMessage assembles the user prompt from the transcript and the
// vault context. Tag and note lists are truncated so an old, large vault
// cannot blow the prompt past the token window.
func buildUserMessage(transcript string, req AnalyzeRequest) string {
	tagsStr := "none"
	if len(req.ExistingTags) > 0 {
		tags := req.ExistingTags
		if len(tags) > 100 {
			tags = tags[:100]
		}
		tagsStr = strings.Join(tags, ", ")
	}

	linksStr := "none"
	if len(req.ExistingNotes) > 0 {
		stems := make([]string, 0, len(req.ExistingNotes))
		for stem := range req.ExistingNotes {
			stems = append(stems, stem)
		}
		sort.Strings(stems)
		if len(stems) > 50 {
			stems = stems[:50]
		}
		var b strings.Builder
		for _, stem := range stems {
			fmt.Fprintf(&b, "  - %s: %s\n", stem, req.ExistingNotes[stem])
		}
		linksStr = strings.TrimRight(b.String(), "\n")
	}

	metadata := strings.TrimSpace(req.MetadataJSON)
	if metadata == "" {
		metadata = "{}"
	}

	return fmt.Sprintf(
		"METADATA:\n%s\n\nEXISTING VAULT TAGS (prefer these):\n%s\n\nEXISTING NOTES (use stems for suggested_links):\n%s\n\nTRANSCRIPT:\n%s",
		metadata, tagsStr, linksStr, transcript)
}

// parseAnalysis decodes the model's JSON, falling back to a minimal
// analysis carrying the raw text as summary when the payload is
// unsalvageable. A memo should still become a note even when the model
// misbehaves.
func parseAnalysis(content string) Analysis {
	var analysis Analysis
	if err := DecodeLLMJSON(content, &analysis); err != nil {
		summary := strings.TrimSpace(content)
		if runes := []rune(summary); len(runes) > 500 {
			summary = string(runes[:500])
		}
		return Analysis{
			Title:   "Untitled Memo",
			Summary: summary,
		}
	}
	analysis.Title = strings.TrimSpace(analysis.Title)
	if analysis.Title == "" {
		analysis.Title = "Untitled Memo"
	}
	return analysis
}

// SplitTranscript cuts text into word-boundary chunks of at most maxTokens
// estimated tokens each.
func SplitTranscript(text string, maxTokens int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current []string
	currentTokens := 0

	for _, word := range words {
		wt := textutil.EstimateTokens(word)
		if currentTokens+wt > maxTokens && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{word}
			currentTokens = wt
		} else {
			current = append(current, word)
			currentTokens += wt
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
