package entities

import "time"

// MinSessionTimestampMs is 1971-01-01T00:00:00Z in epoch milliseconds. A
// session timestamp below it was written in seconds by an old release.
const MinSessionTimestampMs int64 = 31536000000

// Session is one stretch of reading inside a book.
type Session struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	BookID          uint    `gorm:"column:book_id;index" json:"book_id"`
	RemoteID        *int64  `gorm:"column:remote_id;index" json:"remote_id,omitempty"`
	StartPosition   float64 `gorm:"column:start_position" json:"start_position"`
	EndPosition     float64 `gorm:"column:end_position" json:"end_position"`
	DurationSeconds int64   `gorm:"column:duration_seconds" json:"duration_seconds"`
	TimestampMs     int64   `gorm:"column:timestamp" json:"timestamp_ms"`
}

func (Session) TableName() string {
	return "sessions"
}

// Duration returns the active reading time of the session.
func (s Session) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// Time returns the session timestamp as a UTC time.
func (s Session) Time() time.Time {
	return time.UnixMilli(s.TimestampMs).UTC()
}
