package migrations

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/readlog/internal/entities"
)

// CurrentVersion is the schema version this build reads and writes.
const CurrentVersion = BaseVersion + 9

// Steps is the schema history, one entry per version.
var Steps = []Step{
	{
		To:    2,
		Name:  "add books.current_position_timestamp",
		Apply: addColumn("books", "current_position_timestamp", "INTEGER"),
	},
	{
		To:    3,
		Name:  "rename reading_times to reading_sessions",
		Apply: renameTable("reading_times", "reading_sessions"),
	},
	{
		To:    4,
		Name:  "add remote ids and quote add timestamps",
		Apply: addRemoteIDs,
	},
	{
		To:    5,
		Name:  "repair session timestamps stored in seconds",
		Apply: RepairSessionTimestamps("reading_sessions"),
	},
	{
		To:   6,
		Name: "add books.first_position_timestamp and books.closing_remark",
		Apply: chain(
			addColumn("books", "first_position_timestamp", "INTEGER"),
			addColumn("books", "closing_remark", "TEXT"),
		),
	},
	{
		To:   7,
		Name: "rename reading_sessions to sessions and highlights to quotes",
		Apply: chain(
			renameTable("reading_sessions", "sessions"),
			renameTable("highlights", "quotes"),
		),
	},
	{
		To:    8,
		Name:  "remove duplicate quotes",
		Apply: DeduplicateQuotes("quotes"),
	},
	{
		To:    9,
		Name:  "backfill books.first_position_timestamp from sessions",
		Apply: backfillFirstPosition,
	},
	{
		To:    10,
		Name:  "replace sentinel values with NULL",
		Apply: normalizeSentinels,
	},
}

// CreateSchema builds the current schema on an empty store.
func CreateSchema(tx *gorm.DB) error {
	return tx.AutoMigrate(&entities.Book{}, &entities.Session{}, &entities.Quote{})
}

func chain(fns ...StepFunc) StepFunc {
	return func(tx *gorm.DB) error {
		for _, fn := range fns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	}
}

func addColumn(table, column, definition string) StepFunc {
	return func(tx *gorm.DB) error {
		if !tx.Migrator().HasTable(table) {
			return fmt.Errorf("table %s does not exist", table)
		}
		sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
		if err := tx.Exec(sql).Error; err != nil {
			return fmt.Errorf("add %s.%s: %w", table, column, err)
		}
		return nil
	}
}

// renameTable keeps rows in place; it never recreates and copies.
func renameTable(from, to string) StepFunc {
	return func(tx *gorm.DB) error {
		migrator := tx.Migrator()
		if !migrator.HasTable(from) {
			return fmt.Errorf("table %s does not exist", from)
		}
		if migrator.HasTable(to) {
			return fmt.Errorf("cannot rename %s: table %s already exists", from, to)
		}
		if err := migrator.RenameTable(from, to); err != nil {
			return fmt.Errorf("rename %s to %s: %w", from, to, err)
		}
		return nil
	}
}

func addRemoteIDs(tx *gorm.DB) error {
	remoteID := fmt.Sprintf("INTEGER DEFAULT %d", entities.UnsetRemoteID)
	return chain(
		addColumn("books", "remote_id", remoteID),
		addColumn("reading_sessions", "remote_id", remoteID),
		addColumn("highlights", "remote_id", remoteID),
		addColumn("highlights", "add_timestamp", "INTEGER"),
	)(tx)
}

func backfillFirstPosition(tx *gorm.DB) error {
	res := tx.Exec(`UPDATE books SET first_position_timestamp = (
			SELECT MIN(s."timestamp") FROM sessions s WHERE s.book_id = books.id
		)
		WHERE first_position_timestamp IS NULL
		AND EXISTS (SELECT 1 FROM sessions s WHERE s.book_id = books.id)`)
	if res.Error != nil {
		return fmt.Errorf("backfill first position: %w", res.Error)
	}
	log.Printf("[MIGRATE] backfilled first position timestamp on %d books", res.RowsAffected)
	return nil
}

func normalizeSentinels(tx *gorm.DB) error {
	statements := []string{
		fmt.Sprintf("UPDATE books SET remote_id = NULL WHERE remote_id = %d", entities.UnsetRemoteID),
		fmt.Sprintf("UPDATE sessions SET remote_id = NULL WHERE remote_id = %d", entities.UnsetRemoteID),
		fmt.Sprintf("UPDATE quotes SET remote_id = NULL WHERE remote_id = %d", entities.UnsetRemoteID),
		"UPDATE books SET page_count = NULL WHERE page_count <= 0",
		"UPDATE books SET cover_image_url = NULL WHERE cover_image_url = ''",
		"UPDATE books SET closing_remark = NULL WHERE closing_remark = ''",
		fmt.Sprintf("UPDATE books SET state = '%s' WHERE state IS NULL OR state = ''", entities.BookStateUnknown),
	}
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}
