package library

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readlog/internal/entities"
	"github.com/mrlokans/readlog/internal/reconcile"
)

var _ reconcile.Listener = (*List)(nil)

type stubLoader struct {
	books []entities.Book
	err   error
}

func (s stubLoader) ListBooks() ([]entities.Book, error) {
	return s.books, s.err
}

func book(id uint, title string, state entities.BookState) entities.Book {
	return entities.Book{ID: id, Title: title, Author: "Italo Calvino", State: state}
}

func TestList_LoadAndOrder(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Load(stubLoader{books: []entities.Book{
		book(3, "Invisible Cities", entities.BookStateFinished),
		book(1, "If on a winter's night a traveler", entities.BookStateReading),
	}}))

	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, uint(1), all[0].ID)
	assert.Equal(t, uint(3), all[1].ID)

	assert.Error(t, l.Load(stubLoader{err: errors.New("boom")}))
	assert.Equal(t, 2, l.Len())
}

func TestList_UpsertRemove(t *testing.T) {
	l := NewList()
	l.Upsert(book(5, "Cosmicomics", entities.BookStateUnknown))
	l.Upsert(book(2, "The Baron in the Trees", entities.BookStateReading))
	l.Upsert(book(9, "Mr. Palomar", entities.BookStateReading))

	updated := book(5, "Cosmicomics", entities.BookStateFinished)
	updated.Sessions = []entities.Session{{ID: 1}}
	l.Upsert(updated)

	got, ok := l.Get(5)
	require.True(t, ok)
	assert.Equal(t, entities.BookStateFinished, got.State)
	assert.Nil(t, got.Sessions)
	assert.Equal(t, 3, l.Len())

	assert.True(t, l.Remove(2))
	assert.False(t, l.Remove(2))
	_, ok = l.Get(2)
	assert.False(t, ok)

	ids := []uint{}
	for _, b := range l.All() {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []uint{5, 9}, ids)
}

func TestList_Filters(t *testing.T) {
	l := NewList()
	l.Replace([]entities.Book{
		book(1, "Invisible Cities", entities.BookStateFinished),
		book(2, "The Castle of Crossed Destinies", entities.BookStateReading),
	})

	assert.Len(t, l.Search("CITIES"), 1)
	assert.Len(t, l.Search("calvino"), 2)
	reading := l.ByState(entities.BookStateReading)
	require.Len(t, reading, 1)
	assert.Equal(t, uint(2), reading[0].ID)
}

func TestList_ListenerCallbacks(t *testing.T) {
	l := NewList()
	b := book(7, "Marcovaldo", entities.BookStateReading)

	l.ReadingUpdated(&b)
	l.ReadingUpdated(nil)
	assert.Equal(t, 1, l.Len())

	l.ReadingDeleted(7)
	assert.Zero(t, l.Len())
}

func TestList_ConcurrentAccess(t *testing.T) {
	l := NewList()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := uint(w*100 + i + 1)
				l.Upsert(book(id, fmt.Sprintf("book %d", id), entities.BookStateReading))
				if i%3 == 0 {
					l.Remove(id)
				}
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = l.ByState(entities.BookStateReading)
				_ = l.Search("book 1")
			}
		}()
	}
	wg.Wait()

	// 34 of every 100 ids were removed.
	assert.Equal(t, 4*66, l.Len())
}
