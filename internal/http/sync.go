package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/readlog/internal/audit"
	syncrepo "github.com/mrlokans/readlog/internal/database/sync"
	"github.com/mrlokans/readlog/internal/reconcile"
)

// maxPayloadBytes bounds a single sync request body.
const maxPayloadBytes = 32 << 20

// BatchDispatcher hands a decoded batch to background processing.
type BatchDispatcher interface {
	Dispatch(ctx context.Context, source string, batch *reconcile.Batch) error
}

// SyncController accepts batches from the remote feed and reports the state
// of the last reconciliation run.
type SyncController struct {
	reconciler *reconcile.Reconciler
	dispatcher BatchDispatcher
	progress   *syncrepo.Repository
	auditor    *audit.Auditor
}

func NewSyncController(reconciler *reconcile.Reconciler, dispatcher BatchDispatcher, progress *syncrepo.Repository, auditor *audit.Auditor) *SyncController {
	return &SyncController{
		reconciler: reconciler,
		dispatcher: dispatcher,
		progress:   progress,
		auditor:    auditor,
	}
}

// Ingest handles POST /api/sync. The raw body is archived before decoding so
// rejected payloads can still be inspected. With a dispatcher the batch is
// queued and 202 returned; otherwise it is applied before responding.
func (sc *SyncController) Ingest(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes))
	if err != nil {
		respondBadRequest(c, "failed to read request body")
		return
	}

	if sc.auditor != nil {
		if _, err := sc.auditor.SavePayload(body); err != nil {
			log.Printf("Failed to archive sync payload: %v", err)
		}
	}

	batch, err := reconcile.DecodeBatch(bytes.NewReader(body))
	if err != nil {
		respondError(c, http.StatusBadRequest, "malformed_payload", err.Error())
		return
	}
	if batch.RunID == "" {
		batch.RunID = uuid.NewString()
	}

	if sc.dispatcher != nil {
		if err := sc.dispatcher.Dispatch(c.Request.Context(), "http", batch); err != nil {
			respondInternalError(c, err, "enqueue sync batch")
			return
		}
		respondAccepted(c, "sync batch queued", gin.H{
			"run_id": batch.RunID,
			"total":  batch.Len(),
		})
		return
	}

	report, err := sc.reconciler.Apply(c.Request.Context(), batch)
	if err != nil {
		respondInternalError(c, err, "apply sync batch")
		return
	}
	c.JSON(http.StatusOK, report)
}

// SyncStatusResponse is the last run's progress as seen by clients.
type SyncStatusResponse struct {
	Status    string   `json:"status"`
	RunID     string   `json:"run_id,omitempty"`
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Fraction  *float64 `json:"fraction,omitempty"`
	Current   string   `json:"current_item,omitempty"`
	Error     string   `json:"error,omitempty"`
	ErrorCode int      `json:"error_code,omitempty"`
}

// GetStatus handles GET /api/sync/status
func (sc *SyncController) GetStatus(c *gin.Context) {
	// Marks an abandoned run as failed before it is reported.
	if _, err := sc.progress.IsSyncRunning(); err != nil {
		respondInternalError(c, err, "sync status")
		return
	}

	p, err := sc.progress.GetSyncProgress()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, SyncStatusResponse{Status: "idle"})
		return
	}
	if err != nil {
		respondInternalError(c, err, "sync status")
		return
	}

	c.JSON(http.StatusOK, SyncStatusResponse{
		Status:    string(p.Status),
		RunID:     p.RunID,
		Total:     p.TotalItems,
		Processed: p.Processed,
		Succeeded: p.Succeeded,
		Failed:    p.Failed,
		Skipped:   p.Skipped,
		Fraction:  p.Fraction(),
		Current:   p.CurrentItem,
		Error:     p.Error,
		ErrorCode: p.ErrorCode,
	})
}
