package testsupport

import (
	"testing"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/config"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/vaultindex"
)

// MustOpenIndex opens the vault index for tests and registers cleanup.
func MustOpenIndex(t testing.TB, cfg *config.Config) *vaultindex.Store {
	t.Helper()

	store, err := vaultindex.Open(cfg.IndexPath())
	if err != nil {
		t.Fatalf("vaultindex.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
