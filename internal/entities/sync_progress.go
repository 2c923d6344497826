package entities

import (
	"time"
)

type SyncType string

const (
	// SyncTypeReconcile covers batches of partial updates from the remote feed.
	SyncTypeReconcile SyncType = "reconcile"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

type SyncProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SyncType    SyncType   `gorm:"size:50;uniqueIndex" json:"sync_type"`
	RunID       string     `gorm:"size:36" json:"run_id"`
	Status      SyncStatus `gorm:"size:20" json:"status"`
	TotalItems  int        `json:"total_items"`
	Processed   int        `json:"processed"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Skipped     int        `json:"skipped"`
	CurrentItem string     `gorm:"size:512" json:"current_item,omitempty"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	ErrorCode   int        `json:"error_code,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (SyncProgress) TableName() string {
	return "sync_progress"
}

// Fraction returns processed/total, or nil when the total is unknown.
func (p SyncProgress) Fraction() *float64 {
	if p.TotalItems <= 0 {
		return nil
	}
	f := float64(p.Processed) / float64(p.TotalItems)
	return &f
}
