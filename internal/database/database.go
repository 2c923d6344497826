package database

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readlog/internal/database/migrations"
	"github.com/mrlokans/readlog/internal/entities"
)

// ErrNotFound is returned by CRUD calls for a missing id.
var ErrNotFound = errors.New("record not found")

// Options tune how the store is opened.
type Options struct {
	LogLevel logger.LogLevel
}

// ParseLogLevel maps a config value (silent, error, warn, info) to a gorm log
// level, defaulting to warn.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Database is the store handle. It is created once by the entry point and
// passed to every component that needs it.
type Database struct {
	DB *gorm.DB

	path      string
	migration migrations.Result
}

// Open opens the store at dbPath and brings its schema to the current version.
//
// Open is the only fatal error surface of the store: an error here means the
// store is unusable, either because it could not be opened or because a
// migration step failed and was rolled back. Callers must not fall back to a
// partially working store.
func Open(dbPath string, opts Options) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(opts.LogLevel),
		// Older schemas carry no foreign keys; fresh stores must match them.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	// Single writer, single device.
	sqlDB.SetMaxOpenConns(1)

	result, err := migrations.Default().Run(db)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database %s: %w", dbPath, err)
	}

	// Preferences and sync bookkeeping are not part of the versioned schema.
	if err := db.AutoMigrate(&entities.Setting{}, &entities.SyncProgress{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create preference tables: %w", err)
	}

	log.Printf("Database initialized successfully at %s (schema version %d)", dbPath, result.To)

	return &Database{DB: db, path: dbPath, migration: result}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Path returns the file the store was opened from.
func (d *Database) Path() string {
	return d.path
}

// Migration reports what Open did to the schema.
func (d *Database) Migration() migrations.Result {
	return d.migration
}

// Version reads the persisted schema version.
func (d *Database) Version() (int, error) {
	return migrations.Version(d.DB)
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
