package vaultindex

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "w2o.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMarkProcessedAndIsProcessed(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	done, err := store.IsProcessed(ctx, "20260225-094601")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("stem processed before marking")
	}

	if err := store.MarkProcessed(ctx, "20260225-094601"); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	done, err = store.IsProcessed(ctx, "20260225-094601")
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("stem not processed after marking")
	}

	// Marking twice is harmless and keeps a single record.
	if err := store.MarkProcessed(ctx, "20260225-094601"); err != nil {
		t.Fatalf("second MarkProcessed: %v", err)
	}
	stems, err := store.ProcessedStems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stems) != 1 {
		t.Fatalf("processed stems = %d, want 1", len(stems))
	}
}

func TestMarkProcessedKeepsExistingNote(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.UpsertNote(ctx, "rec1", "My Note", "/vault/Inbox/my-note.md"); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkProcessed(ctx, "rec1"); err != nil {
		t.Fatal(err)
	}
	notes, err := store.AllNotes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if notes["rec1"] != "My Note" {
		t.Fatalf("title = %q, want original preserved", notes["rec1"])
	}
}

func TestTagsAndLinks(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.UpsertTags(ctx, "a", []string{"#Meeting", "project/alpha", "", "  "}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertTags(ctx, "b", []string{"meeting"}); err != nil {
		t.Fatal(err)
	}

	tags, err := store.AllTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"meeting", "project/alpha"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("tags = %v, want %v", tags, want)
		}
	}

	stems, err := store.NotesWithTag(ctx, "Meeting")
	if err != nil {
		t.Fatal(err)
	}
	if len(stems) != 2 {
		t.Fatalf("notes with tag = %v, want both stems", stems)
	}

	if err := store.UpsertLinks(ctx, "a", []string{"b", "b", "c", ""}); err != nil {
		t.Fatal(err)
	}
	noteTags, err := store.TagsForNote(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(noteTags) != 2 {
		t.Fatalf("tags for note = %v", noteTags)
	}
}

func TestDeleteNote(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.UpsertNote(ctx, "gone", "Gone", "/vault/gone.md"); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertTags(ctx, "gone", []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteNote(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	done, err := store.IsProcessed(ctx, "gone")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("note still present after delete")
	}
}

func TestWipe(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.MarkProcessed(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertTags(ctx, "a", []string{"t"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Wipe(ctx); err != nil {
		t.Fatalf("Wipe: %v", err)
	}
	stems, err := store.ProcessedStems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stems) != 0 {
		t.Fatalf("stems after wipe = %v", stems)
	}
	// Store remains usable.
	if err := store.MarkProcessed(ctx, "b"); err != nil {
		t.Fatalf("MarkProcessed after wipe: %v", err)
	}
}
