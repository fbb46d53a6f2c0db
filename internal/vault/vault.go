// Package vault writes notes into the Obsidian vault inbox and answers the
// filesystem half of the "already processed" question.
//
// The inbox scan matches a recording stem appearing anywhere inside an
// existing note's filename rather than exactly, so notes a human renamed or
// moved into the inbox by hand still count as done. Pairing this check with
// the SQLite index means neither a lost database nor a lost note file can
// single-handedly cause a memo to be processed twice.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Inbox is the destination folder for generated notes inside the vault.
type Inbox struct {
	dir string
}

// NewInbox wraps the given inbox directory. The directory is created lazily
// on the first write, not here, so read-only commands can construct an
// Inbox for a vault that does not exist yet.
func NewInbox(dir string) *Inbox {
	return &Inbox{dir: dir}
}

// Dir returns the inbox directory path.
func (i *Inbox) Dir() string {
	return i.dir
}

// NoteExists reports whether any markdown note in the inbox carries the
// recording stem anywhere in its filename. A missing inbox means no notes.
func (i *Inbox) NoteExists(stem string) (bool, error) {
	if stem == "" {
		return false, nil
	}
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("scan inbox: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".md") {
			continue
		}
		if strings.Contains(strings.TrimSuffix(name, filepath.Ext(name)), stem) {
			return true, nil
		}
	}
	return false, nil
}

// WriteNote persists rendered markdown under <date>-<slug>.md, appending a
// numeric suffix on collision. Returns the path actually written.
func (i *Inbox) WriteNote(datePrefix, slug, markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", fmt.Errorf("refusing to write empty note %q", slug)
	}
	if slug == "" {
		slug = "untitled"
	}
	if datePrefix == "" {
		datePrefix = time.Now().Format("2006-01-02")
	}
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return "", fmt.Errorf("create inbox: %w", err)
	}

	candidate := filepath.Join(i.dir, fmt.Sprintf("%s-%s.md", datePrefix, slug))
	for counter := 1; ; counter++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			break
		}
		candidate = filepath.Join(i.dir, fmt.Sprintf("%s-%s-%d.md", datePrefix, slug, counter))
	}

	if err := os.WriteFile(candidate, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write note: %w", err)
	}
	return candidate, nil
}

// List returns the markdown note filenames currently in the inbox, sorted.
func (i *Inbox) List() ([]string, error) {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
