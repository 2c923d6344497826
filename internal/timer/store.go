package timer

import (
	"fmt"
	"strconv"

	"github.com/mrlokans/readlog/internal/entities"
)

// Preferences is the key/value store the timer blob is written to.
type Preferences interface {
	GetValues(keys ...string) (map[string]string, error)
	SetValues(values map[string]string) error
	DeleteSettings(keys ...string) error
}

var blobKeys = []string{
	entities.SettingKeyTimerAccumulatedMs,
	entities.SettingKeyTimerActiveStartMs,
	entities.SettingKeyTimerReadingID,
}

// Store persists a Timer as three preference entries, independent of the
// entity schema version.
type Store struct {
	prefs Preferences
}

func NewStore(prefs Preferences) *Store {
	return &Store{prefs: prefs}
}

// Load returns the persisted timer. A missing blob is not an error: it returns
// (nil, false, nil), meaning no reading is being timed.
func (s *Store) Load() (*Timer, bool, error) {
	values, err := s.prefs.GetValues(blobKeys...)
	if err != nil {
		return nil, false, fmt.Errorf("load timer: %w", err)
	}
	if len(values) == 0 {
		return nil, false, nil
	}

	state := State{ReadingID: NoReading}
	if state.AccumulatedMs, err = parseInt(values, entities.SettingKeyTimerAccumulatedMs, 0); err != nil {
		return nil, false, err
	}
	if state.ActiveStartMs, err = parseInt(values, entities.SettingKeyTimerActiveStartMs, 0); err != nil {
		return nil, false, err
	}
	if state.ReadingID, err = parseInt(values, entities.SettingKeyTimerReadingID, NoReading); err != nil {
		return nil, false, err
	}
	return Restore(state), true, nil
}

func (s *Store) Save(t *Timer) error {
	state := t.State()
	err := s.prefs.SetValues(map[string]string{
		entities.SettingKeyTimerAccumulatedMs: strconv.FormatInt(state.AccumulatedMs, 10),
		entities.SettingKeyTimerActiveStartMs: strconv.FormatInt(state.ActiveStartMs, 10),
		entities.SettingKeyTimerReadingID:     strconv.FormatInt(state.ReadingID, 10),
	})
	if err != nil {
		return fmt.Errorf("save timer: %w", err)
	}
	return nil
}

func (s *Store) Clear() error {
	if err := s.prefs.DeleteSettings(blobKeys...); err != nil {
		return fmt.Errorf("clear timer: %w", err)
	}
	return nil
}

func parseInt(values map[string]string, key string, fallback int64) (int64, error) {
	raw, ok := values[key]
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, raw, err)
	}
	return v, nil
}
