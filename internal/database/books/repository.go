// Package books provides database operations for readings, their sessions and
// their quotes.
//
// # Interface Implementation
//
//	var _ library.Loader = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(123)
package books

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/readlog/internal/database"
	"github.com/mrlokans/readlog/internal/entities"
)

// Repository handles all reading, session and quote database operations.
type Repository struct {
	db       *gorm.DB
	books    *database.Repository[entities.Book]
	sessions *database.Repository[entities.Session]
	quotes   *database.Repository[entities.Quote]
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		books:    database.NewRepository[entities.Book](db),
		sessions: database.NewRepository[entities.Session](db),
		quotes:   database.NewRepository[entities.Quote](db),
	}
}

// WithTx returns a repository whose calls run inside tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// WithContext returns a repository whose calls are bound to ctx. A cancelled
// context aborts the running statement and rolls back its transaction.
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return NewRepository(r.db.WithContext(ctx))
}

// Transaction runs fn with a repository bound to a single transaction.
func (r *Repository) Transaction(fn func(repo *Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// GetBookByID retrieves a reading with its sessions and quotes.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Sessions", func(db *gorm.DB) *gorm.DB {
		return db.Order("timestamp ASC, id ASC")
	}).Preload("Quotes", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).First(&book, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("book %d: %w", id, database.ErrNotFound)
		}
		return nil, err
	}
	return &book, nil
}

// GetBook retrieves a reading without its owned collections.
func (r *Repository) GetBook(id uint) (*entities.Book, error) {
	return r.books.Get(id)
}

// FindBookByRemoteID resolves a remote id to the local reading.
func (r *Repository) FindBookByRemoteID(remoteID int64) (*entities.Book, error) {
	return r.books.FindOne("remote_id = ?", remoteID)
}

// ListBooks returns every reading without owned collections, in id order.
func (r *Repository) ListBooks() ([]entities.Book, error) {
	return r.books.Find(nil)
}

// ListBooksByState returns readings in the given state.
func (r *Repository) ListBooksByState(state entities.BookState) ([]entities.Book, error) {
	return r.books.Find("state = ?", state)
}

// SearchBooks searches readings by title or author (case-insensitive partial match).
func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	pattern := "%" + query + "%"
	return r.books.Find("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern)
}

// CreateBook inserts a reading. Any sessions or quotes attached to it are
// inserted in the same transaction.
func (r *Repository) CreateBook(book *entities.Book) error {
	if book.State == "" {
		book.State = entities.BookStateUnknown
	}
	return r.books.Create(book)
}

// UpdateBook writes every column of a reading.
func (r *Repository) UpdateBook(book *entities.Book) error {
	return r.books.Update(book)
}

// DeleteBook removes a reading with all of its sessions and quotes.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		sessions := tx.Where("book_id = ?", id).Delete(&entities.Session{})
		if sessions.Error != nil {
			return sessions.Error
		}
		quotes := tx.Where("book_id = ?", id).Delete(&entities.Quote{})
		if quotes.Error != nil {
			return quotes.Error
		}
		if err := database.NewRepository[entities.Book](tx).Delete(id); err != nil {
			return err
		}
		log.Printf("Deleted book %d with %d sessions and %d quotes", id, sessions.RowsAffected, quotes.RowsAffected)
		return nil
	})
}

// GetStats returns reading, session and quote counts.
func (r *Repository) GetStats() (totalBooks, totalSessions, totalQuotes int64, err error) {
	if totalBooks, err = r.books.Count(); err != nil {
		return
	}
	if totalSessions, err = r.sessions.Count(); err != nil {
		return
	}
	totalQuotes, err = r.quotes.Count()
	return
}

func (r *Repository) requireBook(bookID uint) error {
	var count int64
	if err := r.db.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("book %d: %w", bookID, database.ErrNotFound)
	}
	return nil
}
