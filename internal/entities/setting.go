package entities

import (
	"time"
)

// Setting is a preference-style key/value row. The table lives outside the
// versioned entity schema.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Reading timer blob
	SettingKeyTimerAccumulatedMs = "timer_accumulated_elapsed_ms"
	SettingKeyTimerActiveStartMs = "timer_active_start_ms"
	SettingKeyTimerReadingID     = "timer_reading_id"

	// Inbox sync bookkeeping
	SettingKeyInboxSyncLastAt      = "inbox_sync_last_at"
	SettingKeyInboxSyncLastStatus  = "inbox_sync_last_status"
	SettingKeyInboxSyncLastMessage = "inbox_sync_last_message"
)
