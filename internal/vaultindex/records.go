package vaultindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Note is one indexed vault note.
type Note struct {
	Stem      string
	Title     string
	Path      string
	UpdatedAt time.Time
}

// UpsertNote records a note in the index, replacing any existing row for
// the same stem.
func (s *Store) UpsertNote(ctx context.Context, stem, title, path string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return s.execWithoutResultRetry(ctx,
		"INSERT OR REPLACE INTO notes (stem, title, path, updated_at) VALUES (?,?,?,?)",
		stem, title, path, now)
}

// UpsertTags associates tags with a note. Tags are normalized to lowercase
// with any leading # stripped; empty tags are skipped.
func (s *Store) UpsertTags(ctx context.Context, stem string, tags []string) error {
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tag)), "#")
		if tag == "" {
			continue
		}
		if err := s.execWithoutResultRetry(ctx,
			"INSERT OR IGNORE INTO tags (tag, stem) VALUES (?, ?)", tag, stem); err != nil {
			return fmt.Errorf("upsert tag %q: %w", tag, err)
		}
	}
	return nil
}

// UpsertLinks records outgoing wiki-links from a note.
func (s *Store) UpsertLinks(ctx context.Context, fromStem string, toStems []string) error {
	for _, to := range toStems {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}
		if err := s.execWithoutResultRetry(ctx,
			"INSERT OR IGNORE INTO links (from_stem, to_stem) VALUES (?, ?)", fromStem, to); err != nil {
			return fmt.Errorf("upsert link %q: %w", to, err)
		}
	}
	return nil
}

// DeleteNote removes a note and its tags and links from the index.
func (s *Store) DeleteNote(ctx context.Context, stem string) error {
	for _, stmt := range []string{
		"DELETE FROM notes WHERE stem = ?",
		"DELETE FROM tags  WHERE stem = ?",
		"DELETE FROM links WHERE from_stem = ?",
	} {
		if err := s.execWithoutResultRetry(ctx, stmt, stem); err != nil {
			return fmt.Errorf("delete note %q: %w", stem, err)
		}
	}
	return nil
}

// MarkProcessed records that a recording stem completed the pipeline. An
// existing note row for the stem is left untouched.
func (s *Store) MarkProcessed(ctx context.Context, stem string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return s.execWithoutResultRetry(ctx,
		"INSERT OR IGNORE INTO notes (stem, title, path, updated_at) VALUES (?,?,?,?)",
		stem, stem, "", now)
}

// IsProcessed reports whether a recording stem has a processed record.
func (s *Store) IsProcessed(ctx context.Context, stem string) (bool, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT 1 FROM notes WHERE stem = ?", stem)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query processed stem: %w", err)
	}
	return true, nil
}

// ProcessedStems returns every stem with a processed record.
func (s *Store) ProcessedStems(ctx context.Context) (map[string]struct{}, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT stem FROM notes")
	if err != nil {
		return nil, fmt.Errorf("query processed stems: %w", err)
	}
	defer rows.Close()

	stems := make(map[string]struct{})
	for rows.Next() {
		var stem string
		if err := rows.Scan(&stem); err != nil {
			return nil, fmt.Errorf("scan stem: %w", err)
		}
		stems[stem] = struct{}{}
	}
	return stems, rows.Err()
}

// AllTags returns every distinct tag in the index, sorted.
func (s *Store) AllTags(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT tag FROM tags ORDER BY tag")
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// AllNotes returns stem→title for every indexed note, sorted by stem.
func (s *Store) AllNotes(ctx context.Context) (map[string]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT stem, title FROM notes ORDER BY stem")
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := make(map[string]string)
	for rows.Next() {
		var stem, title string
		if err := rows.Scan(&stem, &title); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes[stem] = title
	}
	return notes, rows.Err()
}

// TagsForNote returns the tags recorded for one note.
func (s *Store) TagsForNote(ctx context.Context, stem string) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT tag FROM tags WHERE stem = ? ORDER BY tag", stem)
	if err != nil {
		return nil, fmt.Errorf("query note tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// NotesWithTag returns the stems of notes carrying the given tag.
func (s *Store) NotesWithTag(ctx context.Context, tag string) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT stem FROM tags WHERE tag = ? ORDER BY stem", strings.ToLower(tag))
	if err != nil {
		return nil, fmt.Errorf("query notes with tag: %w", err)
	}
	defer rows.Close()

	var stems []string
	for rows.Next() {
		var stem string
		if err := rows.Scan(&stem); err != nil {
			return nil, fmt.Errorf("scan stem: %w", err)
		}
		stems = append(stems, stem)
	}
	return stems, rows.Err()
}

// Wipe deletes all rows from every table. The schema stays in place.
func (s *Store) Wipe(ctx context.Context) error {
	for _, table := range []string{"links", "tags", "notes"} {
		if err := s.execWithoutResultRetry(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}
	return nil
}
