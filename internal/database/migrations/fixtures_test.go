package migrations

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "readlog.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func execAll(t *testing.T, db *gorm.DB, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error, stmt)
	}
}

func setTestVersion(t *testing.T, db *gorm.DB, version int) {
	t.Helper()
	execAll(t, db, fmt.Sprintf("PRAGMA user_version = %d", version))
}

// createV1 lays down the schema of the first release that stamped a version.
func createV1(t *testing.T, db *gorm.DB) {
	t.Helper()
	execAll(t, db,
		`CREATE TABLE books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			cover_image_url TEXT,
			page_count REAL DEFAULT -1,
			state TEXT DEFAULT 'unknown',
			current_position REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE reading_times (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER NOT NULL,
			start_position REAL NOT NULL DEFAULT 0,
			end_position REAL NOT NULL DEFAULT 0,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			"timestamp" INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE highlights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			position REAL NOT NULL DEFAULT 0
		)`,
	)
	setTestVersion(t, db, 1)
}

// createV7 lays down the schema as it stood right after both table renames.
func createV7(t *testing.T, db *gorm.DB) {
	t.Helper()
	execAll(t, db,
		`CREATE TABLE books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			cover_image_url TEXT,
			page_count REAL DEFAULT -1,
			state TEXT DEFAULT 'unknown',
			current_position REAL NOT NULL DEFAULT 0,
			current_position_timestamp INTEGER,
			remote_id INTEGER DEFAULT -1,
			first_position_timestamp INTEGER,
			closing_remark TEXT
		)`,
		`CREATE TABLE sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER NOT NULL,
			start_position REAL NOT NULL DEFAULT 0,
			end_position REAL NOT NULL DEFAULT 0,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			"timestamp" INTEGER NOT NULL DEFAULT 0,
			remote_id INTEGER DEFAULT -1
		)`,
		`CREATE TABLE quotes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			position REAL NOT NULL DEFAULT 0,
			remote_id INTEGER DEFAULT -1,
			add_timestamp INTEGER
		)`,
	)
	setTestVersion(t, db, 7)
}
