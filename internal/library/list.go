// Package library keeps an in-memory view of the reading list. The view is
// fed by reconciliation callbacks and read concurrently by the HTTP layer.
package library

import (
	"sort"
	"strings"
	"sync"

	"github.com/mrlokans/readlog/internal/entities"
	"github.com/mrlokans/readlog/internal/reconcile"
)

// Loader provides the initial contents of the list.
type Loader interface {
	ListBooks() ([]entities.Book, error)
}

// List is a cached reading list ordered by id. Sessions and quotes are not
// cached; read them from the store.
type List struct {
	reconcile.NopListener

	mu    sync.RWMutex
	books []entities.Book
}

func NewList() *List {
	return &List{}
}

// Load replaces the cached list with the store's contents.
func (l *List) Load(loader Loader) error {
	books, err := loader.ListBooks()
	if err != nil {
		return err
	}
	l.Replace(books)
	return nil
}

func (l *List) Replace(books []entities.Book) {
	cached := make([]entities.Book, len(books))
	for i, b := range books {
		cached[i] = strip(b)
	}
	sort.Slice(cached, func(i, j int) bool { return cached[i].ID < cached[j].ID })

	l.mu.Lock()
	l.books = cached
	l.mu.Unlock()
}

// Upsert inserts book or replaces the cached entry with the same id.
func (l *List) Upsert(book entities.Book) {
	book = strip(book)

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(book.ID)
	if i < len(l.books) && l.books[i].ID == book.ID {
		l.books[i] = book
		return
	}
	l.books = append(l.books, entities.Book{})
	copy(l.books[i+1:], l.books[i:])
	l.books[i] = book
}

// Remove drops the entry with id and reports whether it was cached.
func (l *List) Remove(id uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i == len(l.books) || l.books[i].ID != id {
		return false
	}
	l.books = append(l.books[:i], l.books[i+1:]...)
	return true
}

func (l *List) Get(id uint) (entities.Book, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.index(id)
	if i == len(l.books) || l.books[i].ID != id {
		return entities.Book{}, false
	}
	return l.books[i], true
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.books)
}

// All returns a copy of the cached list.
func (l *List) All() []entities.Book {
	return l.Filter(func(entities.Book) bool { return true })
}

// Filter returns the cached readings for which keep returns true. keep runs
// under the read lock and must not call back into the list.
func (l *List) Filter(keep func(entities.Book) bool) []entities.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]entities.Book, 0, len(l.books))
	for _, b := range l.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// Search matches title or author, case-insensitively.
func (l *List) Search(query string) []entities.Book {
	return l.Filter(func(b entities.Book) bool { return Matches(b, query) })
}

// Matches reports whether query occurs in the title or author of b, ignoring case.
func Matches(b entities.Book, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(b.Title), q) || strings.Contains(strings.ToLower(b.Author), q)
}

func (l *List) ByState(state entities.BookState) []entities.Book {
	return l.Filter(func(b entities.Book) bool { return b.State == state })
}

// ReadingUpdated keeps the list current with reconciliation.
func (l *List) ReadingUpdated(book *entities.Book) {
	if book != nil {
		l.Upsert(*book)
	}
}

// ReadingDeleted keeps the list current with reconciliation.
func (l *List) ReadingDeleted(id uint) {
	l.Remove(id)
}

// index must be called with l.mu held.
func (l *List) index(id uint) int {
	return sort.Search(len(l.books), func(i int) bool { return l.books[i].ID >= id })
}

func strip(b entities.Book) entities.Book {
	b.Sessions = nil
	b.Quotes = nil
	return b
}
