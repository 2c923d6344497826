// Package timer measures active reading time across pause/resume cycles.
//
// A Timer is either Stopped (ActiveStartMs == 0) or Running. Elapsed time is
// split into what was accumulated before the last pause and the live span
// since the last start, so the state survives process restarts as three
// integers (see Store).
package timer

import (
	"errors"
	"fmt"

	"github.com/mrlokans/readlog/internal/entities"
)

// NoReading marks a timer that is not linked to any book.
const NoReading int64 = -1

var (
	// ErrAlreadyRunning is returned by Start on a running timer. The running
	// span is left untouched.
	ErrAlreadyRunning = errors.New("timer already running")

	// ErrInvalidTimestamp is returned for non-positive start times, since zero
	// is the "not running" marker.
	ErrInvalidTimestamp = errors.New("timer timestamp must be positive")
)

// State is the persisted form of a Timer.
type State struct {
	AccumulatedMs int64 `json:"accumulated_elapsed_ms"`
	ActiveStartMs int64 `json:"active_start_ms"`
	ReadingID     int64 `json:"reading_id"`
}

// Timer is not safe for concurrent use; Service adds locking.
type Timer struct {
	state State
}

func New(readingID int64) *Timer {
	return &Timer{state: State{ReadingID: readingID}}
}

// Restore rebuilds a timer from persisted state. Negative values left behind
// by a corrupted blob are clamped to a stopped, empty timer.
func Restore(s State) *Timer {
	if s.AccumulatedMs < 0 {
		s.AccumulatedMs = 0
	}
	if s.ActiveStartMs < 0 {
		s.ActiveStartMs = 0
	}
	return &Timer{state: s}
}

func (t *Timer) State() State {
	return t.state
}

func (t *Timer) ReadingID() int64 {
	return t.state.ReadingID
}

func (t *Timer) Running() bool {
	return t.state.ActiveStartMs != 0
}

// Start moves a stopped timer to Running at nowMs.
func (t *Timer) Start(nowMs int64) error {
	if nowMs <= 0 {
		return fmt.Errorf("start at %d: %w", nowMs, ErrInvalidTimestamp)
	}
	if t.Running() {
		return ErrAlreadyRunning
	}
	t.state.ActiveStartMs = nowMs
	return nil
}

// Pause folds the live span into the accumulated total and stops the timer.
// Pausing a stopped timer does nothing. A clock that went backwards
// contributes nothing rather than shrinking the total.
func (t *Timer) Pause(nowMs int64) {
	if !t.Running() {
		return
	}
	t.state.AccumulatedMs += t.liveSpan(nowMs)
	t.state.ActiveStartMs = 0
}

// TotalElapsed returns the elapsed milliseconds at nowMs without changing state.
func (t *Timer) TotalElapsed(nowMs int64) int64 {
	if !t.Running() {
		return t.state.AccumulatedMs
	}
	return t.state.AccumulatedMs + t.liveSpan(nowMs)
}

// Session converts the elapsed time into a reading session for bookID that
// ends at nowMs.
func (t *Timer) Session(bookID uint, startPosition, endPosition float64, nowMs int64) entities.Session {
	return entities.Session{
		BookID:          bookID,
		StartPosition:   startPosition,
		EndPosition:     endPosition,
		DurationSeconds: t.TotalElapsed(nowMs) / 1000,
		TimestampMs:     nowMs,
	}
}

func (t *Timer) liveSpan(nowMs int64) int64 {
	delta := nowMs - t.state.ActiveStartMs
	if delta < 0 {
		return 0
	}
	return delta
}
