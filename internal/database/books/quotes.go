package books

import (
	"github.com/mrlokans/readlog/internal/entities"
)

// CreateQuote inserts a quote for an existing reading.
func (r *Repository) CreateQuote(quote *entities.Quote) error {
	if err := r.requireBook(quote.BookID); err != nil {
		return err
	}
	return r.quotes.Create(quote)
}

func (r *Repository) GetQuoteByID(id uint) (*entities.Quote, error) {
	return r.quotes.Get(id)
}

// FindQuoteByRemoteID resolves a remote id to the local quote.
func (r *Repository) FindQuoteByRemoteID(remoteID int64) (*entities.Quote, error) {
	return r.quotes.FindOne("remote_id = ?", remoteID)
}

// GetQuotesForBook returns a reading's quotes ordered by position.
func (r *Repository) GetQuotesForBook(bookID uint) ([]entities.Quote, error) {
	var quotes []entities.Quote
	err := r.db.Where("book_id = ?", bookID).Order("position ASC, id ASC").Find(&quotes).Error
	return quotes, err
}

func (r *Repository) UpdateQuote(quote *entities.Quote) error {
	return r.quotes.Update(quote)
}

func (r *Repository) DeleteQuote(id uint) error {
	return r.quotes.Delete(id)
}
