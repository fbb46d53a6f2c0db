package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/config"
)

// WriteRecording drops a placeholder audio file into the watched folder and
// returns its path. A zero modTime leaves the filesystem timestamp alone.
func WriteRecording(t testing.TB, cfg *config.Config, stem string, modTime time.Time) string {
	t.Helper()

	path := filepath.Join(cfg.Paths.AudioDir, stem+".m4a")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}
	return path
}

// WriteSidecar places a sidecar next to a recording. The name is the full
// sidecar filename, for example "memo.json" or "memo.meta.txt".
func WriteSidecar(t testing.TB, cfg *config.Config, name, body string) string {
	t.Helper()

	path := filepath.Join(cfg.Paths.AudioDir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write sidecar %s: %v", path, err)
	}
	return path
}

// WriteNote places a markdown note into the vault inbox.
func WriteNote(t testing.TB, cfg *config.Config, name, markdown string) string {
	t.Helper()

	path := filepath.Join(cfg.InboxPath(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		t.Fatalf("write note %s: %v", path, err)
	}
	return path
}
