// Package transcache caches completed transcriptions next to their audio
// files so a failed pipeline run never pays for the same transcription
// twice.
//
// Each cached transcript is a pair of sidecars sharing the audio stem:
// <stem>.transcript.txt holds the raw text and <stem>.transcript.json holds
// the structured record (language, token count, timestamp). The JSON file is
// written last through a temp-file rename, so its presence commits the
// entry; a crash mid-write leaves at most a stray .txt that the next run
// overwrites. Both files present is the cache-hit signal.
package transcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrMiss is returned by Load when no committed cache entry exists.
var ErrMiss = errors.New("transcript not cached")

// Entry is one cached transcription.
type Entry struct {
	Text       string    `json:"-"`
	Language   string    `json:"language"`
	TokenCount int       `json:"token_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// TextPath returns the transcript text sidecar location for an audio file.
func TextPath(audioPath string) string {
	return withoutExt(audioPath) + ".transcript.txt"
}

// MetaPath returns the structured record sidecar location for an audio file.
func MetaPath(audioPath string) string {
	return withoutExt(audioPath) + ".transcript.json"
}

func withoutExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// Has reports whether a committed cache entry exists for the audio file.
func Has(audioPath string) bool {
	if _, err := os.Stat(MetaPath(audioPath)); err != nil {
		return false
	}
	if _, err := os.Stat(TextPath(audioPath)); err != nil {
		return false
	}
	return true
}

// Load reads the cached transcription for an audio file. Returns ErrMiss
// when either sidecar is absent; a present but unreadable entry is an error.
func Load(audioPath string) (Entry, error) {
	metaData, err := os.ReadFile(MetaPath(audioPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, ErrMiss
		}
		return Entry{}, fmt.Errorf("read transcript record: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(metaData, &entry); err != nil {
		return Entry{}, fmt.Errorf("parse transcript record: %w", err)
	}

	text, err := os.ReadFile(TextPath(audioPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, ErrMiss
		}
		return Entry{}, fmt.Errorf("read transcript text: %w", err)
	}
	entry.Text = strings.TrimSpace(string(text))
	if entry.Text == "" {
		return Entry{}, ErrMiss
	}
	return entry, nil
}

// Write persists a transcription as the audio file's cache entry. The text
// sidecar lands first; the JSON record is renamed into place afterwards so
// the entry only ever appears fully present.
func Write(audioPath string, entry Entry) error {
	if strings.TrimSpace(entry.Text) == "" {
		return fmt.Errorf("refusing to cache empty transcript for %s", filepath.Base(audioPath))
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	if err := os.WriteFile(TextPath(audioPath), []byte(entry.Text), 0o644); err != nil {
		return fmt.Errorf("write transcript text: %w", err)
	}

	metaData, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript record: %w", err)
	}
	metaPath := MetaPath(audioPath)
	tmp := metaPath + ".tmp"
	if err := os.WriteFile(tmp, metaData, 0o644); err != nil {
		return fmt.Errorf("write transcript record: %w", err)
	}
	if err := os.Rename(tmp, metaPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit transcript record: %w", err)
	}
	return nil
}

// Invalidate removes both sidecars, forcing the next run to re-transcribe.
// The record is removed first so the entry never looks committed while the
// text is already gone.
func Invalidate(audioPath string) error {
	if err := os.Remove(MetaPath(audioPath)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove transcript record: %w", err)
	}
	if err := os.Remove(TextPath(audioPath)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove transcript text: %w", err)
	}
	return nil
}
