package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readlog/internal/entities"
	"github.com/mrlokans/readlog/internal/timer"
)

func TestTimerController_Lifecycle(t *testing.T) {
	app := newTestApp(t)
	book := app.seedBook(t, "Dune", "Frank Herbert")

	status := decode[timer.Status](t, app.do("GET", "/api/timer", nil))
	assert.Equal(t, timer.NoReading, status.ReadingID)
	assert.False(t, status.Running)

	w := app.do("POST", "/api/timer/start", map[string]any{"reading_id": book.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[timer.Status](t, w).Running)

	app.now = app.now.Add(90 * time.Second)
	w = app.do("POST", "/api/timer/pause", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status = decode[timer.Status](t, w)
	assert.False(t, status.Running)
	assert.Equal(t, int64(90_000), status.ElapsedMs)

	w = app.do("POST", "/api/timer/finish", map[string]any{"start_position": 0.1, "end_position": 0.2})
	require.Equal(t, http.StatusCreated, w.Code)
	session := decode[entities.Session](t, w)
	assert.Equal(t, book.ID, session.BookID)
	assert.Equal(t, int64(90), session.DurationSeconds)

	status = decode[timer.Status](t, app.do("GET", "/api/timer", nil))
	assert.Equal(t, timer.NoReading, status.ReadingID)
}

func TestTimerController_Errors(t *testing.T) {
	app := newTestApp(t)
	dune := app.seedBook(t, "Dune", "Frank Herbert")
	emma := app.seedBook(t, "Emma", "Jane Austen")

	t.Run("finish without timer", func(t *testing.T) {
		w := app.do("POST", "/api/timer/finish", map[string]any{"start_position": 0, "end_position": 0.1})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("start requires reading id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, app.do("POST", "/api/timer/start", `{}`).Code)
	})

	t.Run("start for unknown reading", func(t *testing.T) {
		w := app.do("POST", "/api/timer/start", map[string]any{"reading_id": 999})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	require.Equal(t, http.StatusOK, app.do("POST", "/api/timer/start", map[string]any{"reading_id": dune.ID}).Code)

	t.Run("double start", func(t *testing.T) {
		w := app.do("POST", "/api/timer/start", map[string]any{"reading_id": dune.ID})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("start for another reading while time is held", func(t *testing.T) {
		app.now = app.now.Add(time.Minute)
		w := app.do("POST", "/api/timer/start", map[string]any{"reading_id": emma.ID})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("finish with positions out of order", func(t *testing.T) {
		w := app.do("POST", "/api/timer/finish", map[string]any{"start_position": 0.5, "end_position": 0.2})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		status := decode[timer.Status](t, app.do("GET", "/api/timer", nil))
		assert.Equal(t, int64(dune.ID), status.ReadingID, "a rejected finish keeps the timer")
	})
}

func TestTimerController_ResetAfterReadingDeleted(t *testing.T) {
	app := newTestApp(t)
	dune := app.seedBook(t, "Dune", "Frank Herbert")
	emma := app.seedBook(t, "Emma", "Jane Austen")

	require.Equal(t, http.StatusOK, app.do("POST", "/api/timer/start", map[string]any{"reading_id": dune.ID}).Code)
	app.now = app.now.Add(time.Minute)
	require.Equal(t, http.StatusOK, app.do("DELETE", fmt.Sprintf("/api/readings/%d", dune.ID), nil).Code)

	w := app.do("POST", "/api/timer/finish", map[string]any{"start_position": 0, "end_position": 0.5})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do("POST", "/api/timer/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	discarded := decode[timer.Status](t, w)
	assert.Equal(t, int64(dune.ID), discarded.ReadingID)
	assert.Equal(t, int64(60_000), discarded.ElapsedMs)

	status := decode[timer.Status](t, app.do("GET", "/api/timer", nil))
	assert.Equal(t, timer.NoReading, status.ReadingID)

	w = app.do("POST", "/api/timer/start", map[string]any{"reading_id": emma.ID})
	assert.Equal(t, http.StatusOK, w.Code)
}
