package entities

// BookState tracks how far the reader got with a book.
type BookState string

const (
	BookStateUnknown  BookState = "unknown"
	BookStateReading  BookState = "reading"
	BookStateFinished BookState = "finished"
)

// UnsetRemoteID is the legacy "not synced yet" marker older releases stored in
// remote_id columns. Current rows use NULL instead.
const UnsetRemoteID int64 = -1

func (s BookState) rank() int {
	switch s {
	case BookStateReading:
		return 1
	case BookStateFinished:
		return 2
	default:
		return 0
	}
}

// Valid reports whether s is one of the known states.
func (s BookState) Valid() bool {
	switch s {
	case BookStateUnknown, BookStateReading, BookStateFinished:
		return true
	}
	return false
}

// Advance reports whether moving from s to next follows
// Unknown -> Reading -> Finished. Staying in the same state is allowed.
func (s BookState) Advance(next BookState) bool {
	return next.rank() >= s.rank()
}

type Book struct {
	ID                         uint      `gorm:"primaryKey" json:"id"`
	RemoteID                   *int64    `gorm:"column:remote_id;index" json:"remote_id,omitempty"`
	Title                      string    `gorm:"column:title" json:"title"`
	Author                     string    `gorm:"column:author" json:"author"`
	CoverImageURL              *string   `gorm:"column:cover_image_url" json:"cover_image_url,omitempty"`
	PageCount                  *float64  `gorm:"column:page_count" json:"page_count,omitempty"`
	State                      BookState `gorm:"column:state;size:20;default:'unknown'" json:"state"`
	CurrentPosition            float64   `gorm:"column:current_position;not null;default:0" json:"current_position"`
	CurrentPositionTimestampMs *int64    `gorm:"column:current_position_timestamp" json:"current_position_timestamp_ms,omitempty"`
	FirstPositionTimestampMs   *int64    `gorm:"column:first_position_timestamp" json:"first_position_timestamp_ms,omitempty"`
	ClosingRemark              *string   `gorm:"column:closing_remark" json:"closing_remark,omitempty"`

	// Owned collections; deleting a book deletes both.
	Sessions []Session `gorm:"foreignKey:BookID" json:"sessions,omitempty"`
	Quotes   []Quote   `gorm:"foreignKey:BookID" json:"quotes,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// NewBook returns a book in the Unknown state with nothing read yet.
func NewBook(title, author string) *Book {
	return &Book{
		Title:  title,
		Author: author,
		State:  BookStateUnknown,
	}
}
