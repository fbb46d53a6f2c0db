package memo

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// templateAliases maps sidecar category values onto note template keys.
// Matching is case-insensitive; anything absent maps to "default".
var templateAliases = map[string]string{
	"books":   "books",
	"book":    "books",
	"reading": "books",

	"course":   "course",
	"courses":  "course",
	"lecture":  "course",
	"lectures": "course",
	"class":    "course",

	"generic": "default",
	"general": "default",
	"note":    "default",
	"notes":   "default",
	"memo":    "default",
	"memos":   "default",

	"ideas":       "idea",
	"idea":        "idea",
	"brainstorm":  "idea",
	"inspiration": "idea",

	"meeting":  "meeting",
	"meetings": "meeting",

	"podcast":  "podcast",
	"podcasts": "podcast",

	"research": "research",

	"shopping":  "shopping",
	"shop":      "shopping",
	"grocery":   "shopping",
	"groceries": "shopping",

	"todo":      "todo",
	"todos":     "todo",
	"task":      "todo",
	"tasks":     "todo",
	"reminder":  "todo",
	"reminders": "todo",

	"journal":  "default",
	"personal": "default",
}

// TemplateKeyFor resolves a raw category value to a note template key.
func TemplateKeyFor(category string) string {
	if key, ok := templateAliases[strings.ToLower(strings.TrimSpace(category))]; ok {
		return key
	}
	return "default"
}

// Metadata describes a recording as reported by its sidecar file, or
// reconstructed from the filename when no sidecar exists.
type Metadata struct {
	Title       string
	Category    string
	TemplateKey string
	Date        time.Time
	Duration    time.Duration
	Location    string
	Notes       string
	Source      string
}

// DurationDisplay renders the duration as MM:SS, or HH:MM:SS past an hour.
func (m Metadata) DurationDisplay() string {
	total := int(m.Duration.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// rawMetadata carries sidecar fields before normalization. Duration stays a
// string because sidecars disagree on the format.
type rawMetadata struct {
	Title    string
	Category string
	Date     string
	Duration string
	Location string
	Notes    string
}

// ParseMetadata finds and parses the sidecar for an audio file. Sidecars are
// tried in order: <stem>.json, <stem>.xml, <name>.meta.txt, <stem>.meta.txt.
// Parse failures and missing sidecars fall back to filename metadata rather
// than erroring; a voice memo is never unprocessable for lack of a sidecar.
func ParseMetadata(audioPath string) Metadata {
	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	withoutExt := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))

	var raw rawMetadata
	source := ""
	switch {
	case tryParse(withoutExt+".json", parseJSONSidecar, &raw):
		source = "json"
	case tryParse(withoutExt+".xml", parseXMLSidecar, &raw):
		source = "xml"
	case tryParse(audioPath+".meta.txt", parseMetaTxt, &raw):
		source = "meta.txt"
	case tryParse(withoutExt+".meta.txt", parseMetaTxt, &raw):
		source = "meta.txt"
	default:
		source = "fallback"
		raw = fallbackMetadata(audioPath, stem)
	}

	return normalize(raw, stem, source)
}

func tryParse(path string, parse func([]byte) (rawMetadata, error), out *rawMetadata) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	parsed, err := parse(data)
	if err != nil {
		return false
	}
	*out = parsed
	return true
}

func fallbackMetadata(audioPath, stem string) rawMetadata {
	raw := rawMetadata{
		Title: titleFromStem(stem),
	}
	if info, err := os.Stat(audioPath); err == nil {
		raw.Date = info.ModTime().Format(time.RFC3339)
	}
	return raw
}

func titleFromStem(stem string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	words := strings.Fields(cleaned)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

func parseJSONSidecar(data []byte) (rawMetadata, error) {
	var payload struct {
		Title    string          `json:"title"`
		Category string          `json:"category"`
		Date     string          `json:"date"`
		Duration json.RawMessage `json:"duration"`
		Location string          `json:"location"`
		Notes    string          `json:"notes"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return rawMetadata{}, err
	}
	return rawMetadata{
		Title:    payload.Title,
		Category: payload.Category,
		Date:     payload.Date,
		Duration: strings.Trim(string(payload.Duration), `"`),
		Location: payload.Location,
		Notes:    payload.Notes,
	}, nil
}

// parseXMLSidecar reads a key-value XML sidecar. Both flat child elements
// (<recording><title>…</title></recording>) and the <entry key="…">value
// layout some app versions emit are supported.
func parseXMLSidecar(data []byte) (rawMetadata, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	fields := map[string]string{}

	depth := 0
	currentKey := ""
	var text strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch tok := token.(type) {
		case xml.StartElement:
			depth++
			name := strings.ToLower(tok.Name.Local)
			if name == "entry" {
				for _, attr := range tok.Attr {
					attrName := strings.ToLower(attr.Name.Local)
					if attrName == "key" || attrName == "name" {
						currentKey = strings.ToLower(strings.TrimSpace(attr.Value))
					}
				}
			} else if depth == 2 {
				currentKey = name
			}
			text.Reset()
		case xml.CharData:
			text.Write(tok)
		case xml.EndElement:
			if currentKey != "" {
				value := strings.TrimSpace(text.String())
				if value != "" {
					fields[currentKey] = value
				}
				currentKey = ""
			}
			depth--
		}
	}
	if len(fields) == 0 {
		return rawMetadata{}, fmt.Errorf("no fields in xml sidecar")
	}
	return rawMetadata{
		Title:    fields["title"],
		Category: fields["category"],
		Date:     fields["date"],
		Duration: fields["duration"],
		Location: fields["location"],
		Notes:    fields["notes"],
	}, nil
}

const metaTxtSentinel = "------VOICE-RECORD-PRO-META"

var dayOfWeekPrefix = regexp.MustCompile(`^\w+,\s*`)

// parseMetaTxt reads the plain-text sidecar Voice Record Pro writes. Lines
// before the binary-blob sentinel are "Key : Value" pairs; everything after
// it is ignored.
func parseMetaTxt(data []byte) (rawMetadata, error) {
	fields := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), metaTxtSentinel) {
			break
		}
		key, value, ok := strings.Cut(line, " : ")
		if !ok {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			fields[key] = value
		}
	}
	if len(fields) == 0 {
		return rawMetadata{}, fmt.Errorf("no fields in meta.txt sidecar")
	}

	raw := rawMetadata{
		Title:    fields["title"],
		Category: fields["category"],
		Duration: fields["duration"],
	}
	if created := fields["creation_date"]; created != "" {
		if parsed, ok := parseVerboseDate(created); ok {
			raw.Date = parsed.Format(time.RFC3339)
		}
	}
	return raw, nil
}

// parseVerboseDate handles strings like
// "Wednesday, 25 February 2026 at 09:46:01 Central European Standard Time".
// The day-of-week prefix and trailing timezone name are discarded.
func parseVerboseDate(value string) (time.Time, bool) {
	cleaned := dayOfWeekPrefix.ReplaceAllString(strings.TrimSpace(value), "")
	cleaned = strings.ReplaceAll(cleaned, " at ", " ")
	tokens := strings.Fields(cleaned)
	if len(tokens) >= 4 {
		cleaned = strings.Join(tokens[:4], " ")
	}
	for _, layout := range []string{"2 January 2006 15:04:05", "2 Jan 2006 15:04:05"} {
		if parsed, err := time.ParseInLocation(layout, cleaned, time.Local); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func normalize(raw rawMetadata, stem, source string) Metadata {
	category := strings.ToLower(strings.TrimSpace(raw.Category))

	date := time.Time{}
	if trimmed := strings.TrimSpace(raw.Date); trimmed != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
				date = parsed
				break
			}
		}
	}
	if date.IsZero() {
		date = time.Now()
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = stem
	}

	return Metadata{
		Title:       title,
		Category:    category,
		TemplateKey: TemplateKeyFor(category),
		Date:        date,
		Duration:    parseDuration(raw.Duration),
		Location:    strings.TrimSpace(raw.Location),
		Notes:       strings.TrimSpace(raw.Notes),
		Source:      source,
	}
}

// parseDuration accepts plain seconds ("125.4") or clock notation
// ("00:02:05", "02:05").
func parseDuration(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if strings.Contains(value, ":") {
		parts := strings.Split(value, ":")
		total := 0
		for _, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return 0
			}
			total = total*60 + n
		}
		if len(parts) > 3 {
			return 0
		}
		return time.Duration(total) * time.Second
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
