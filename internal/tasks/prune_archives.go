package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/mikestefanello/backlite"
)

const defaultRetentionDays = 30

// Archive is a directory of handled payload files pruned by age.
type Archive interface {
	DeleteOlderThan(retention time.Duration) (int, error)
}

// PruneArchivesTask deletes handled payload files past the retention period:
// the raw copies kept by the auditor and the inbox's processed/failed folders.
type PruneArchivesTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for archive pruning tasks.
func (t PruneArchivesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_archives",
		MaxAttempts: 2,
		Backoff:     10 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

func (t PruneArchivesTask) retention() time.Duration {
	days := t.RetentionDays
	if days <= 0 {
		days = defaultRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// PruneArchivesProcessor prunes every named archive. A failing archive does
// not stop the others; all failures are returned together so the task is
// retried.
func PruneArchivesProcessor(archives map[string]Archive) backlite.QueueProcessor[PruneArchivesTask] {
	names := make([]string, 0, len(archives))
	for name := range archives {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(ctx context.Context, task PruneArchivesTask) error {
		if len(names) == 0 {
			return fmt.Errorf("no archives configured")
		}

		retention := task.retention()
		var errs []error
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return err
			}
			removed, err := archives[name].DeleteOlderThan(retention)
			if err != nil {
				errs = append(errs, fmt.Errorf("prune %s: %w", name, err))
				continue
			}
			if removed > 0 {
				log.Printf("[TASK] Pruned %d files older than %s from %s", removed, retention, name)
			}
		}
		return errors.Join(errs...)
	}
}

// NewPruneArchivesQueue creates a backlite queue for archive pruning tasks.
func NewPruneArchivesQueue(archives map[string]Archive) backlite.Queue {
	return backlite.NewQueue(PruneArchivesProcessor(archives))
}
