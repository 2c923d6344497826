// Package settings provides the preference-style key/value store.
//
// The settings table is not part of the versioned entity schema: it is created
// with AutoMigrate after the store is opened and is read and written a few keys
// at a time (the reading timer blob, inbox sync bookkeeping).
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	values, err := repo.GetValues(entities.SettingKeyTimerReadingID)
package settings

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/readlog/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// GetValues returns the values of the keys that exist. Missing keys are simply
// absent from the map.
func (r *Repository) GetValues(keys ...string) (map[string]string, error) {
	var rows []entities.Setting
	if err := r.db.Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

// SetSetting creates or updates a setting.
func (r *Repository) SetSetting(key, value string) error {
	return r.SetValues(map[string]string{key: value})
}

// SetValues upserts all values in one transaction so a reader never sees half
// of a multi-key blob.
func (r *Repository) SetValues(values map[string]string) error {
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			setting := entities.Setting{Key: key, Value: value, CreatedAt: now, UpdatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&setting).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(key string) error {
	return r.DeleteSettings(key)
}

// DeleteSettings removes the given keys. Deleting absent keys is not an error.
func (r *Repository) DeleteSettings(keys ...string) error {
	err := r.db.Where("key IN ?", keys).Delete(&entities.Setting{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// GetTime parses an RFC 3339 setting, returning nil when unset or unparsable.
func (r *Repository) GetTime(key string) *time.Time {
	setting, err := r.GetSetting(key)
	if err != nil || setting.Value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, setting.Value)
	if err != nil {
		return nil
	}
	return &t
}
