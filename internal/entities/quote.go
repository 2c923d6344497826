package entities

type Quote struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	BookID         uint    `gorm:"column:book_id;index" json:"book_id"`
	RemoteID       *int64  `gorm:"column:remote_id;index" json:"remote_id,omitempty"`
	Content        string  `gorm:"column:content;type:text" json:"content"`
	Position       float64 `gorm:"column:position" json:"position"`
	AddTimestampMs *int64  `gorm:"column:add_timestamp" json:"add_timestamp_ms,omitempty"`
}

func (Quote) TableName() string {
	return "quotes"
}
