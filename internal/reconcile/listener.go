package reconcile

import (
	"github.com/mrlokans/readlog/internal/entities"
)

// Listener receives the outcome of every reconciliation step. Calls are made
// synchronously from the goroutine running the sync, after the affected
// entity has been committed.
type Listener interface {
	// EntitySaved reports a saved *entities.Book, *entities.Session or
	// *entities.Quote, or the per-entity failure with a nil entity.
	EntitySaved(entity any, err error)
	EntityDeleted(id uint, err error)
	SyncStarted()
	// SyncProgress reports progress; fraction is nil when the total is unknown.
	SyncProgress(message string, fraction *float64)
	SyncFailed(message string, code int)
	SyncDone()
	ReadingUpdated(book *entities.Book)
	ReadingDeleted(id uint)
}

// NopListener ignores every callback. Embed it to implement only a subset.
type NopListener struct{}

func (NopListener) EntitySaved(any, error) {}
func (NopListener) EntityDeleted(uint, error) {}
func (NopListener) SyncStarted() {}
func (NopListener) SyncProgress(string, *float64) {}
func (NopListener) SyncFailed(string, int) {}
func (NopListener) SyncDone() {}
func (NopListener) ReadingUpdated(*entities.Book) {}
func (NopListener) ReadingDeleted(uint) {}

// Listeners fans every callback out in order.
type Listeners []Listener

func (ls Listeners) EntitySaved(entity any, err error) {
	for _, l := range ls {
		l.EntitySaved(entity, err)
	}
}

func (ls Listeners) EntityDeleted(id uint, err error) {
	for _, l := range ls {
		l.EntityDeleted(id, err)
	}
}

func (ls Listeners) SyncStarted() {
	for _, l := range ls {
		l.SyncStarted()
	}
}

func (ls Listeners) SyncProgress(message string, fraction *float64) {
	for _, l := range ls {
		l.SyncProgress(message, fraction)
	}
}

func (ls Listeners) SyncFailed(message string, code int) {
	for _, l := range ls {
		l.SyncFailed(message, code)
	}
}

func (ls Listeners) SyncDone() {
	for _, l := range ls {
		l.SyncDone()
	}
}

func (ls Listeners) ReadingUpdated(book *entities.Book) {
	for _, l := range ls {
		l.ReadingUpdated(book)
	}
}

func (ls Listeners) ReadingDeleted(id uint) {
	for _, l := range ls {
		l.ReadingDeleted(id)
	}
}
