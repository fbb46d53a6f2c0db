package memo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Recording is a voice memo audio file found in the watched folder.
type Recording struct {
	Path    string
	Stem    string
	ModTime time.Time
}

// Scan lists .m4a recordings in dir, oldest first by modification time so
// memos are handled in chronological order. A missing directory is an error;
// unreadable entries are skipped.
func Scan(dir string) ([]Recording, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read audio folder: %w", err)
	}

	var recordings []Recording
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".m4a") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		recordings = append(recordings, Recording{
			Path:    filepath.Join(dir, name),
			Stem:    strings.TrimSuffix(name, filepath.Ext(name)),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(recordings, func(i, j int) bool {
		if recordings[i].ModTime.Equal(recordings[j].ModTime) {
			return recordings[i].Stem < recordings[j].Stem
		}
		return recordings[i].ModTime.Before(recordings[j].ModTime)
	})
	return recordings, nil
}
