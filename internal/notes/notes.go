// Package notes renders the final Obsidian markdown from an analysis and
// the memo's metadata.
//
// Each note category has an embedded template; unknown categories fall back
// to the default one. The analysis may override the sidecar's category when
// the transcript clearly belongs elsewhere, and that override also picks
// the template.
package notes

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/memo"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/services/groq"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/textutil"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

// Context carries everything a note template can reference.
type Context struct {
	Title          string
	Summary        string
	KeyPoints      []string
	ActionItems    []string
	Tags           []string
	SuggestedLinks []string
	MermaidDiagram string
	DataviewFields map[string]string

	Metadata   memo.Metadata
	Transcript string
	Language   string
	TokensUsed int
}

// Rendered is the outcome of rendering one note.
type Rendered struct {
	Markdown string
	// Slug is the filename-safe form of the title, without date prefix or
	// extension.
	Slug string
	// DatePrefix is the YYYY-MM-DD prefix derived from the recording date.
	DatePrefix string
}

// Renderer renders notes from the embedded template set.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"wikilink": func(stem string) string { return "[[" + stem + "]]" },
		"join":     strings.Join,
	}
	parsed, err := template.New("notes").Funcs(funcs).ParseFS(templateFS, "templates/*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse note templates: %w", err)
	}
	return &Renderer{templates: parsed}, nil
}

// Render produces the markdown for a memo. The template is selected by the
// analysis category override when present, otherwise the sidecar category.
func (r *Renderer) Render(analysis groq.Analysis, meta memo.Metadata, transcript, language string) (Rendered, error) {
	templateKey := meta.TemplateKey
	if override := strings.TrimSpace(analysis.CategoryOverride); override != "" {
		templateKey = memo.TemplateKeyFor(override)
	}
	if templateKey == "" {
		templateKey = "default"
	}

	name := templateKey + ".md.tmpl"
	if r.templates.Lookup(name) == nil {
		name = "default.md.tmpl"
	}

	title := strings.TrimSpace(analysis.Title)
	if title == "" {
		title = meta.Title
	}
	if title == "" {
		title = "Untitled"
	}

	ctx := Context{
		Title:          title,
		Summary:        analysis.Summary,
		KeyPoints:      analysis.KeyPoints,
		ActionItems:    analysis.ActionItems,
		Tags:           normalizeTags(analysis.Tags),
		SuggestedLinks: analysis.SuggestedLinks,
		MermaidDiagram: strings.TrimSpace(analysis.MermaidDiagram),
		DataviewFields: analysis.DataviewFields,
		Metadata:       meta,
		Transcript:     transcript,
		Language:       language,
		TokensUsed:     analysis.TokensUsed,
	}

	var b strings.Builder
	b.WriteString(frontMatter(ctx, templateKey))
	if err := r.templates.ExecuteTemplate(&b, name, ctx); err != nil {
		return Rendered{}, fmt.Errorf("render note template %q: %w", name, err)
	}

	date := meta.Date
	if date.IsZero() {
		date = time.Now()
	}
	return Rendered{
		Markdown:   b.String(),
		Slug:       textutil.Slugify(title),
		DatePrefix: date.Format("2006-01-02"),
	}, nil
}

// frontMatter builds the YAML header shared by every template.
func frontMatter(ctx Context, category string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", ctx.Title)
	fmt.Fprintf(&b, "date: %s\n", ctx.Metadata.Date.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, "category: %s\n", category)
	b.WriteString("source: voice-memo\n")
	if ctx.Metadata.Duration > 0 {
		fmt.Fprintf(&b, "duration: %s\n", ctx.Metadata.DurationDisplay())
	}
	if ctx.Language != "" {
		fmt.Fprintf(&b, "language: %s\n", ctx.Language)
	}
	if len(ctx.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(ctx.Tags, ", "))
	}
	if len(ctx.DataviewFields) > 0 {
		keys := make([]string, 0, len(ctx.DataviewFields))
		for key := range ctx.DataviewFields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "%s: %s\n", key, ctx.DataviewFields[key])
		}
	}
	b.WriteString("---\n\n")
	return b.String()
}

func normalizeTags(tags []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tag)), "#")
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
