package books

import (
	"github.com/mrlokans/readlog/internal/entities"
)

// CreateSession inserts a session for an existing reading.
func (r *Repository) CreateSession(session *entities.Session) error {
	if err := r.requireBook(session.BookID); err != nil {
		return err
	}
	return r.sessions.Create(session)
}

func (r *Repository) GetSessionByID(id uint) (*entities.Session, error) {
	return r.sessions.Get(id)
}

// FindSessionByRemoteID resolves a remote id to the local session.
func (r *Repository) FindSessionByRemoteID(remoteID int64) (*entities.Session, error) {
	return r.sessions.FindOne("remote_id = ?", remoteID)
}

// GetSessionsForBook returns a reading's sessions, oldest first.
func (r *Repository) GetSessionsForBook(bookID uint) ([]entities.Session, error) {
	var sessions []entities.Session
	err := r.db.Where("book_id = ?", bookID).Order("timestamp ASC, id ASC").Find(&sessions).Error
	return sessions, err
}

func (r *Repository) UpdateSession(session *entities.Session) error {
	return r.sessions.Update(session)
}

func (r *Repository) DeleteSession(id uint) error {
	return r.sessions.Delete(id)
}
