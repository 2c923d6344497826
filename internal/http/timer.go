package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/timer"
)

// TimerController drives the persisted reading timer.
type TimerController struct {
	timer *timer.Service
	books *books.Repository
}

func NewTimerController(service *timer.Service, repo *books.Repository) *TimerController {
	return &TimerController{timer: service, books: repo}
}

type StartTimerRequest struct {
	ReadingID int64 `json:"reading_id" binding:"required"`
}

type FinishTimerRequest struct {
	StartPosition float64 `json:"start_position"`
	EndPosition   float64 `json:"end_position"`
}

// Status handles GET /api/timer
func (tc *TimerController) Status(c *gin.Context) {
	status, err := tc.timer.Status()
	if err != nil {
		respondInternalError(c, err, "timer status")
		return
	}
	c.JSON(http.StatusOK, status)
}

// Start handles POST /api/timer/start
func (tc *TimerController) Start(c *gin.Context) {
	var req StartTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "reading_id is required")
		return
	}
	if req.ReadingID <= 0 {
		respondBadRequest(c, "invalid reading_id")
		return
	}
	if _, err := tc.books.GetBook(uint(req.ReadingID)); err != nil {
		respondStoreError(c, err, "reading", "start timer")
		return
	}

	status, err := tc.timer.Start(req.ReadingID)
	if err != nil {
		tc.respondTimerError(c, err, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Pause handles POST /api/timer/pause. Pausing an idle timer is a no-op.
func (tc *TimerController) Pause(c *gin.Context) {
	status, err := tc.timer.Pause()
	if err != nil {
		respondInternalError(c, err, "pause timer")
		return
	}
	c.JSON(http.StatusOK, status)
}

// Finish handles POST /api/timer/finish. The elapsed time becomes a session of
// the timed reading and the timer is cleared.
func (tc *TimerController) Finish(c *gin.Context) {
	var req FinishTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	session, err := tc.timer.Finish(req.StartPosition, req.EndPosition)
	if err != nil {
		tc.respondTimerError(c, err, timer.Status{})
		return
	}
	c.JSON(http.StatusCreated, session)
}

// Reset handles POST /api/timer/reset. The elapsed time is dropped without
// recording a session; the response holds what was discarded.
func (tc *TimerController) Reset(c *gin.Context) {
	status, err := tc.timer.Discard()
	if err != nil {
		respondInternalError(c, err, "reset timer")
		return
	}
	c.JSON(http.StatusOK, status)
}

func (tc *TimerController) respondTimerError(c *gin.Context, err error, status timer.Status) {
	switch {
	case errors.Is(err, timer.ErrAlreadyRunning), errors.Is(err, timer.ErrOtherReading):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "timer": status})
	case errors.Is(err, timer.ErrNoActiveTimer):
		respondError(c, http.StatusNotFound, "no_active_timer", err.Error())
	case errors.Is(err, timer.ErrInvalidPositions):
		respondBadRequest(c, err.Error())
	default:
		respondStoreError(c, err, "reading", "timer")
	}
}
