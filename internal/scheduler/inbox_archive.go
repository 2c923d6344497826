package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// InboxArchive is the processed/ and failed/ folders of an inbox, where
// payload files end up once a pass has handled them.
type InboxArchive struct {
	Dir string
}

func NewInboxArchive(dir string) *InboxArchive {
	return &InboxArchive{Dir: dir}
}

// DeleteOlderThan removes handled payload files whose modification time is
// before now-retention. Files still waiting in the inbox are never touched.
func (a *InboxArchive) DeleteOlderThan(retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, sub := range []string{processedDir, failedDir} {
		dir := filepath.Join(a.Dir, sub)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("failed to list %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return removed, err
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
			}
			removed++
		}
	}
	return removed, nil
}
