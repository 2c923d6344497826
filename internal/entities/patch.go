package entities

// Patch types carry a partial update. A nil field means "not specified" and
// leaves the target untouched; a non-nil field is copied even when it holds a
// zero value, so a position of 0.0 can be set explicitly.

type BookPatch struct {
	RemoteID                   *int64     `json:"remote_id,omitempty"`
	Title                      *string    `json:"title,omitempty"`
	Author                     *string    `json:"author,omitempty"`
	CoverImageURL              *string    `json:"cover_image_url,omitempty"`
	PageCount                  *float64   `json:"page_count,omitempty"`
	State                      *BookState `json:"state,omitempty"`
	CurrentPosition            *float64   `json:"current_position,omitempty"`
	CurrentPositionTimestampMs *int64     `json:"current_position_timestamp_ms,omitempty"`
	FirstPositionTimestampMs   *int64     `json:"first_position_timestamp_ms,omitempty"`
	ClosingRemark              *string    `json:"closing_remark,omitempty"`
}

type SessionPatch struct {
	RemoteID        *int64   `json:"remote_id,omitempty"`
	StartPosition   *float64 `json:"start_position,omitempty"`
	EndPosition     *float64 `json:"end_position,omitempty"`
	DurationSeconds *int64   `json:"duration_seconds,omitempty"`
	TimestampMs     *int64   `json:"timestamp_ms,omitempty"`
}

type QuotePatch struct {
	RemoteID       *int64   `json:"remote_id,omitempty"`
	Content        *string  `json:"content,omitempty"`
	Position       *float64 `json:"position,omitempty"`
	AddTimestampMs *int64   `json:"add_timestamp_ms,omitempty"`
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
