package groq

// AnalysisPrompt instructs the model to produce the structured note
// analysis for a full transcript or synthesized chunk summaries.
const AnalysisPrompt = `You are an expert knowledge manager helping convert voice memo transcripts into
structured Obsidian notes. Analyse the transcript and return ONLY valid JSON
(no markdown, no explanation) with this exact schema:

{
  "title": "concise note title",
  "summary": "2-3 sentence summary",
  "key_points": ["point 1", "point 2"],
  "action_items": ["action 1"],
  "tags": ["tag1", "tag2"],
  "suggested_links": ["existing-note-stem-1"],
  "category_override": null,
  "mermaid_diagram": null,
  "dataview_fields": {}
}

Rules:
- tags: lowercase, hyphen-separated. Prefer tags from the provided existing_tags list,
  only introduce new tags if genuinely needed.
- suggested_links: choose ONLY from the provided existing_links stems.
- mermaid_diagram: provide a Mermaid flowchart string ONLY for process/workflow memos, else null.
- category_override: override the category if the transcript clearly belongs to a different
  category than the metadata claims, else null.
- dataview_fields: any key::value pairs useful for Dataview queries (e.g. "project", "status").`

// ChunkPrompt instructs the model to condense one chunk of a long
// transcript into plain text for the synthesis pass.
const ChunkPrompt = `You are summarising a chunk of a longer voice memo transcript.
Return ONLY a plain text summary of the key points in this chunk (no JSON).
Be concise but preserve all important facts, names, and action items.`

// SynthesisPrompt instructs the model to combine chunk summaries into
// the final structured analysis.
const SynthesisPrompt = `You are combining chunk summaries of a voice memo into a final structured analysis.
Use the same JSON schema as before:
{title, summary, key_points, action_items, tags, suggested_links,
 category_override, mermaid_diagram, dataview_fields}`
