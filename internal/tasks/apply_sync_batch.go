package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readlog/internal/reconcile"
)

// BatchApplier merges a batch into the store.
type BatchApplier interface {
	Apply(ctx context.Context, batch *reconcile.Batch) (*reconcile.Report, error)
}

// ApplySyncBatchTask applies one batch from the remote feed in the background.
type ApplySyncBatchTask struct {
	Batch reconcile.Batch `json:"batch"`
	// Source names where the batch came from (inbox file, HTTP request).
	Source string `json:"source,omitempty"`
}

// Config returns the queue configuration for sync batches. A batch is tried
// once: readings created from payloads without remote ids would be created
// again on a retry.
func (t ApplySyncBatchTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "apply_sync_batch",
		MaxAttempts: 1,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ApplySyncBatchProcessor creates a processor for ApplySyncBatchTask. Each
// batch runs under timeout; when it expires the batch stops before the next
// entity and no completion callback fires.
func ApplySyncBatchProcessor(applier BatchApplier, timeout time.Duration) backlite.QueueProcessor[ApplySyncBatchTask] {
	return func(ctx context.Context, task ApplySyncBatchTask) error {
		if applier == nil {
			return fmt.Errorf("batch applier not configured")
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		report, err := applier.Apply(ctx, &task.Batch)
		if err != nil {
			return fmt.Errorf("apply batch from %s: %w", task.Source, err)
		}

		log.Printf("[TASK] Applied batch %s from %s: %d succeeded, %d failed, %d skipped",
			report.RunID, task.Source, report.Succeeded, report.Failed, report.Skipped)
		if report.Failed > 0 {
			return fmt.Errorf("batch %s: %d of %d updates failed", report.RunID, report.Failed, report.Total)
		}
		return nil
	}
}

// NewApplySyncBatchQueue creates a backlite queue for sync batches.
func NewApplySyncBatchQueue(applier BatchApplier, timeout time.Duration) backlite.Queue {
	return backlite.NewQueue(ApplySyncBatchProcessor(applier, timeout))
}

// Enqueuer hands sync batches to the queue instead of applying them inline.
type Enqueuer struct {
	client *Client
}

func NewEnqueuer(client *Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// Dispatch enqueues batch and returns once it is stored in the task database.
func (e *Enqueuer) Dispatch(ctx context.Context, source string, batch *reconcile.Batch) error {
	ids, err := e.client.Add(ApplySyncBatchTask{Batch: *batch, Source: source}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("enqueue batch from %s: %w", source, err)
	}
	log.Printf("[TASK] Enqueued batch from %s as %v", source, ids)
	return nil
}
