package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readlog/internal/entities"
)

type readingList struct {
	Readings []entities.Book `json:"readings"`
	Total    int             `json:"total"`
}

func TestReadingsController_List(t *testing.T) {
	app := newTestApp(t)
	dune := app.seedBook(t, "Dune", "Frank Herbert")
	app.seedBook(t, "Emma", "Jane Austen")
	dune.State = entities.BookStateReading
	require.NoError(t, app.books.UpdateBook(dune))
	app.list.Upsert(*dune)

	t.Run("all readings", func(t *testing.T) {
		w := app.do("GET", "/api/readings", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[readingList](t, w)
		assert.Equal(t, 2, list.Total)
		assert.Equal(t, "Dune", list.Readings[0].Title)
	})

	t.Run("search", func(t *testing.T) {
		list := decode[readingList](t, app.do("GET", "/api/readings?q=austen", nil))
		require.Equal(t, 1, list.Total)
		assert.Equal(t, "Emma", list.Readings[0].Title)
	})

	t.Run("by state", func(t *testing.T) {
		list := decode[readingList](t, app.do("GET", "/api/readings?state=reading", nil))
		require.Equal(t, 1, list.Total)
		assert.Equal(t, "Dune", list.Readings[0].Title)
	})

	t.Run("search within state", func(t *testing.T) {
		list := decode[readingList](t, app.do("GET", "/api/readings?state=reading&q=emma", nil))
		assert.Equal(t, 0, list.Total)
		assert.NotNil(t, list.Readings)
	})

	t.Run("unknown state", func(t *testing.T) {
		w := app.do("GET", "/api/readings?state=abandoned", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReadingsController_Get(t *testing.T) {
	app := newTestApp(t)
	book := app.seedBook(t, "Dune", "Frank Herbert")
	require.NoError(t, app.books.CreateSession(&entities.Session{BookID: book.ID, StartPosition: 0, EndPosition: 0.1, DurationSeconds: 600, TimestampMs: 1_600_000_000_000}))
	require.NoError(t, app.books.CreateQuote(&entities.Quote{BookID: book.ID, Content: "Fear is the mind-killer.", Position: 0.05}))

	w := app.do("GET", fmt.Sprintf("/api/readings/%d", book.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[entities.Book](t, w)
	assert.Equal(t, "Dune", got.Title)
	assert.Len(t, got.Sessions, 1)
	assert.Len(t, got.Quotes, 1)

	assert.Equal(t, http.StatusNotFound, app.do("GET", "/api/readings/999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, app.do("GET", "/api/readings/abc", nil).Code)
}

func TestReadingsController_Stats(t *testing.T) {
	app := newTestApp(t)
	book := app.seedBook(t, "Dune", "Frank Herbert")
	require.NoError(t, app.books.CreateQuote(&entities.Quote{BookID: book.ID, Content: "q", Position: 0.5}))

	stats := decode[map[string]int64](t, app.do("GET", "/api/readings/stats", nil))
	assert.Equal(t, int64(1), stats["total_readings"])
	assert.Equal(t, int64(0), stats["total_sessions"])
	assert.Equal(t, int64(1), stats["total_quotes"])
}

func TestReadingsController_Update(t *testing.T) {
	app := newTestApp(t)
	book := app.seedBook(t, "Dune", "Frank Herbert")
	path := fmt.Sprintf("/api/readings/%d", book.ID)

	t.Run("partial update leaves other fields", func(t *testing.T) {
		w := app.do("PATCH", path, `{"current_position": 0.4, "state": "reading"}`)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[entities.Book](t, w)
		assert.Equal(t, 0.4, got.CurrentPosition)
		assert.Equal(t, entities.BookStateReading, got.State)
		assert.Equal(t, "Frank Herbert", got.Author)

		cached, ok := app.list.Get(book.ID)
		require.True(t, ok)
		assert.Equal(t, 0.4, cached.CurrentPosition)
	})

	t.Run("explicit zero is applied", func(t *testing.T) {
		w := app.do("PATCH", path, `{"current_position": 0}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0.0, decode[entities.Book](t, w).CurrentPosition)
	})

	t.Run("position out of range", func(t *testing.T) {
		w := app.do("PATCH", path, `{"current_position": 1.5}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing reading", func(t *testing.T) {
		w := app.do("PATCH", "/api/readings/999", `{"title": "Other"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		w := app.do("PATCH", path, `{"current_position": "far"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReadingsController_Delete(t *testing.T) {
	app := newTestApp(t)
	book := app.seedBook(t, "Dune", "Frank Herbert")
	require.NoError(t, app.books.CreateQuote(&entities.Quote{BookID: book.ID, Content: "q", Position: 0.5}))
	path := fmt.Sprintf("/api/readings/%d", book.ID)

	require.Equal(t, http.StatusOK, app.do("DELETE", path, nil).Code)
	assert.Equal(t, 0, app.list.Len())

	_, _, quotes, err := app.books.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), quotes)

	assert.Equal(t, http.StatusNotFound, app.do("DELETE", path, nil).Code)
}

func TestReadingsController_DownloadMarkdown(t *testing.T) {
	app := newTestApp(t)
	book := app.seedBook(t, "Dune: Messiah", "Frank Herbert")
	require.NoError(t, app.books.CreateQuote(&entities.Quote{BookID: book.ID, Content: "The spice must flow.", Position: 0.5}))

	w := app.do("GET", fmt.Sprintf("/api/readings/%d/markdown", book.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="Dune Messiah.md"`)
	assert.Contains(t, w.Body.String(), "> The spice must flow.")

	assert.Equal(t, http.StatusNotFound, app.do("GET", "/api/readings/404/markdown", nil).Code)
}
