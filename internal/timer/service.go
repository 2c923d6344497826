package timer

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/readlog/internal/database"
	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/database/settings"
	"github.com/mrlokans/readlog/internal/entities"
)

var (
	// ErrNoActiveTimer is returned when finishing while nothing is persisted.
	ErrNoActiveTimer = errors.New("no active reading timer")

	// ErrOtherReading is returned when starting a timer for one book while
	// elapsed time for another book has not been finished yet.
	ErrOtherReading = errors.New("timer holds elapsed time for another reading")

	// ErrInvalidPositions is returned by Finish for positions outside [0,1]
	// or an end before the start.
	ErrInvalidPositions = errors.New("invalid session positions")
)

type Status struct {
	Running   bool  `json:"running"`
	ReadingID int64 `json:"reading_id"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

// Service loads, mutates and saves the persisted timer under a lock so HTTP
// handlers and CLI commands share one view of it.
type Service struct {
	db    *gorm.DB
	store *Store
	now   func() time.Time

	mu sync.Mutex
}

// NewService keeps the timer blob in the settings table of db and writes
// finished sessions to the same store.
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:    db,
		store: NewStore(settings.NewRepository(db)),
		now:   time.Now,
	}
}

// SetClock replaces the wall clock (tests).
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Start(readingID int64) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowMs()
	t, found, err := s.store.Load()
	if err != nil {
		return Status{}, err
	}
	switch {
	case !found:
		t = New(readingID)
	case t.ReadingID() != readingID && t.TotalElapsed(now) > 0:
		orphaned, err := s.orphaned(t)
		if err != nil {
			return Status{}, err
		}
		if !orphaned {
			return statusOf(t, now), ErrOtherReading
		}
		log.Printf("[TIMER] dropping %dms held for deleted reading %d", t.TotalElapsed(now), t.ReadingID())
		t = New(readingID)
	case t.ReadingID() != readingID:
		t = New(readingID)
	}

	if err := t.Start(now); err != nil {
		return statusOf(t, now), err
	}
	if err := s.store.Save(t); err != nil {
		return Status{}, err
	}
	log.Printf("[TIMER] started for reading %d (elapsed so far %dms)", readingID, t.TotalElapsed(now))
	return statusOf(t, now), nil
}

func (s *Service) Pause() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowMs()
	t, found, err := s.store.Load()
	if err != nil {
		return Status{}, err
	}
	if !found {
		return Status{ReadingID: NoReading}, nil
	}
	if !t.Running() {
		return statusOf(t, now), nil
	}

	t.Pause(now)
	if err := s.store.Save(t); err != nil {
		return Status{}, err
	}
	log.Printf("[TIMER] paused for reading %d at %dms", t.ReadingID(), t.TotalElapsed(now))
	return statusOf(t, now), nil
}

func (s *Service) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, found, err := s.store.Load()
	if err != nil {
		return Status{}, err
	}
	if !found {
		return Status{ReadingID: NoReading}, nil
	}
	return statusOf(t, s.nowMs()), nil
}

// Finish stops the timer, stores the elapsed time as a session of the linked
// book and clears the persisted blob.
func (s *Service) Finish(startPosition, endPosition float64) (*entities.Session, error) {
	if startPosition < 0 || endPosition > 1 || endPosition < startPosition {
		return nil, fmt.Errorf("finish timer: %v..%v: %w", startPosition, endPosition, ErrInvalidPositions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowMs()
	t, found, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoActiveTimer
	}
	if t.ReadingID() <= 0 {
		return nil, fmt.Errorf("finish timer: reading id %d: %w", t.ReadingID(), ErrNoActiveTimer)
	}

	t.Pause(now)
	session := t.Session(uint(t.ReadingID()), startPosition, endPosition, now)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := books.NewRepository(tx).CreateSession(&session); err != nil {
			return fmt.Errorf("save timed session: %w", err)
		}
		return NewStore(settings.NewRepository(tx)).Clear()
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[TIMER] finished reading %d: %ds recorded as session %d", t.ReadingID(), session.DurationSeconds, session.ID)
	return &session, nil
}

// Discard drops the persisted timer without recording a session and returns
// the state that was thrown away.
func (s *Service) Discard() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, found, err := s.store.Load()
	if err != nil {
		return Status{}, err
	}
	if !found {
		return Status{ReadingID: NoReading}, nil
	}

	status := statusOf(t, s.nowMs())
	if err := s.store.Clear(); err != nil {
		return Status{}, err
	}
	log.Printf("[TIMER] discarded %dms for reading %d", status.ElapsedMs, status.ReadingID)
	return status, nil
}

// orphaned reports whether the reading t is linked to no longer exists, so its
// elapsed time can never be finished.
func (s *Service) orphaned(t *Timer) (bool, error) {
	if t.ReadingID() <= 0 {
		return true, nil
	}
	_, err := books.NewRepository(s.db).GetBook(uint(t.ReadingID()))
	if errors.Is(err, database.ErrNotFound) {
		return true, nil
	}
	return false, err
}

func (s *Service) nowMs() int64 {
	return s.now().UnixMilli()
}

func statusOf(t *Timer, nowMs int64) Status {
	return Status{
		Running:   t.Running(),
		ReadingID: t.ReadingID(),
		ElapsedMs: t.TotalElapsed(nowMs),
	}
}
