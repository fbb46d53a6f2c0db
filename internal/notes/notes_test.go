package notes

import (
	"strings"
	"testing"
	"time"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/memo"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services/groq"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func meetingMeta() memo.Metadata {
	return memo.Metadata{
		Title:       "25 February 2026 09:46:01",
		Category:    "meeting",
		TemplateKey: "meeting",
		Date:        time.Date(2026, 2, 25, 9, 46, 1, 0, time.Local),
		Duration:    28 * time.Second,
	}
}

func TestRenderMeetingNote(t *testing.T) {
	r := newTestRenderer(t)
	analysis := groq.Analysis{
		Title:          "Weekly Sync",
		Summary:        "Team discussed the release.",
		KeyPoints:      []string{"release slips a week"},
		ActionItems:    []string{"update roadmap"},
		Tags:           []string{"Meeting", "#release", "meeting"},
		SuggestedLinks: []string{"roadmap-2026"},
		TokensUsed:     450,
	}

	rendered, err := r.Render(analysis, meetingMeta(), "we talked about the release", "English")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	md := rendered.Markdown
	for _, want := range []string{
		"---\n",
		`title: "Weekly Sync"`,
		"category: meeting",
		"source: voice-memo",
		"duration: 00:28",
		"language: English",
		"tags: [meeting, release]",
		"# Weekly Sync",
		"- [ ] update roadmap",
		"[[roadmap-2026]]",
		"## Transcript",
		"we talked about the release",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if rendered.Slug != "weekly-sync" {
		t.Fatalf("slug = %q", rendered.Slug)
	}
	if rendered.DatePrefix != "2026-02-25" {
		t.Fatalf("date prefix = %q", rendered.DatePrefix)
	}
}

func TestRenderUnknownCategoryFallsBackToDefault(t *testing.T) {
	r := newTestRenderer(t)
	meta := meetingMeta()
	meta.TemplateKey = "no-such-template"

	rendered, err := r.Render(groq.Analysis{Title: "X"}, meta, "body", "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(rendered.Markdown, "# X") {
		t.Fatalf("markdown = %q", rendered.Markdown)
	}
}

func TestRenderCategoryOverridePicksTemplate(t *testing.T) {
	r := newTestRenderer(t)
	analysis := groq.Analysis{
		Title:            "Buy Groceries",
		CategoryOverride: "Shopping",
		KeyPoints:        []string{"milk", "eggs"},
	}

	rendered, err := r.Render(analysis, meetingMeta(), "milk and eggs", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rendered.Markdown, "category: shopping") {
		t.Fatalf("front matter category not overridden:\n%s", rendered.Markdown)
	}
	if !strings.Contains(rendered.Markdown, "- [ ] milk") {
		t.Fatalf("shopping list items missing:\n%s", rendered.Markdown)
	}
}

func TestRenderMermaidBlock(t *testing.T) {
	r := newTestRenderer(t)
	analysis := groq.Analysis{
		Title:          "Deploy Flow",
		MermaidDiagram: "flowchart TD\n  A --> B",
	}
	meta := meetingMeta()
	meta.TemplateKey = "default"

	rendered, err := r.Render(analysis, meta, "transcript", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rendered.Markdown, "```mermaid\nflowchart TD\n  A --> B\n```") {
		t.Fatalf("mermaid block missing:\n%s", rendered.Markdown)
	}
}

func TestRenderDataviewFieldsInFrontMatter(t *testing.T) {
	r := newTestRenderer(t)
	analysis := groq.Analysis{
		Title:          "Alpha Status",
		DataviewFields: map[string]string{"project": "alpha", "status": "active"},
	}
	rendered, err := r.Render(analysis, meetingMeta(), "t", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rendered.Markdown, "project: alpha\nstatus: active") {
		t.Fatalf("dataview fields missing or unsorted:\n%s", rendered.Markdown)
	}
}

func TestRenderFallbackTitles(t *testing.T) {
	r := newTestRenderer(t)
	meta := meetingMeta()

	// Analysis title empty: metadata title wins.
	rendered, err := r.Render(groq.Analysis{}, meta, "t", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rendered.Markdown, meta.Title) {
		t.Fatalf("metadata title not used:\n%s", rendered.Markdown)
	}

	// Both empty: Untitled.
	meta.Title = ""
	rendered, err = r.Render(groq.Analysis{}, meta, "t", "")
	if err != nil {
		t.Fatal(err)
	}
	if rendered.Slug != "untitled" {
		t.Fatalf("slug = %q, want untitled", rendered.Slug)
	}
}

func TestAllCategoryTemplatesRender(t *testing.T) {
	r := newTestRenderer(t)
	analysis := groq.Analysis{
		Title:       "T",
		Summary:     "s",
		KeyPoints:   []string{"k"},
		ActionItems: []string{"a"},
	}
	for _, key := range []string{"default", "meeting", "idea", "todo", "shopping", "books", "course", "podcast", "research"} {
		meta := meetingMeta()
		meta.TemplateKey = key
		rendered, err := r.Render(analysis, meta, "transcript body", "")
		if err != nil {
			t.Fatalf("template %q: %v", key, err)
		}
		if !strings.Contains(rendered.Markdown, "transcript body") {
			t.Fatalf("template %q lost the transcript", key)
		}
		if !strings.Contains(rendered.Markdown, "category: "+key) {
			t.Fatalf("template %q wrong front matter category", key)
		}
	}
}
