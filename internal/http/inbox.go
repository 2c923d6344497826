package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlog/internal/database/settings"
	"github.com/mrlokans/readlog/internal/entities"
)

// InboxScheduler is the part of the inbox poller the API controls.
type InboxScheduler interface {
	RunNow()
	IsRunning() bool
	IsSyncing() bool
	GetNextRunTime() *time.Time
}

// InboxController exposes the payload inbox poller.
type InboxController struct {
	scheduler InboxScheduler
	settings  *settings.Repository
}

func NewInboxController(scheduler InboxScheduler, repo *settings.Repository) *InboxController {
	return &InboxController{scheduler: scheduler, settings: repo}
}

// GetStatus handles GET /api/inbox/status
func (ic *InboxController) GetStatus(c *gin.Context) {
	values, err := ic.settings.GetValues(
		entities.SettingKeyInboxSyncLastStatus,
		entities.SettingKeyInboxSyncLastMessage,
	)
	if err != nil {
		respondInternalError(c, err, "inbox status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scheduler_running": ic.scheduler.IsRunning(),
		"syncing":           ic.scheduler.IsSyncing(),
		"next_run":          ic.scheduler.GetNextRunTime(),
		"last_sync":         ic.settings.GetTime(entities.SettingKeyInboxSyncLastAt),
		"last_status":       values[entities.SettingKeyInboxSyncLastStatus],
		"last_message":      values[entities.SettingKeyInboxSyncLastMessage],
	})
}

// SyncNow handles POST /api/inbox/sync
func (ic *InboxController) SyncNow(c *gin.Context) {
	if ic.scheduler.IsSyncing() {
		respondError(c, http.StatusConflict, "sync_in_progress", "inbox sync already in progress")
		return
	}
	ic.scheduler.RunNow()
	respondAccepted(c, "inbox sync started", nil)
}
