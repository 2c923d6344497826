package migrations

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/readlog/internal/entities"
)

// RepairTimestampMs fixes a session timestamp written in seconds by an old
// release. Anything below 1971-01-01 in milliseconds is taken to be seconds
// and multiplied by 1000; later values are returned unchanged.
//
// This is a heuristic: no reading session legitimately predates 1971, so a
// millisecond value that small can only be a seconds value.
func RepairTimestampMs(ts int64) (int64, bool) {
	if ts <= 0 || ts >= entities.MinSessionTimestampMs {
		return ts, false
	}
	return ts * 1000, true
}

type sessionTimestamp struct {
	ID        uint
	Timestamp int64
}

// RepairSessionTimestamps returns a step that scans table for timestamps
// stored in seconds and rewrites them in milliseconds.
func RepairSessionTimestamps(table string) StepFunc {
	return func(tx *gorm.DB) error {
		var rows []sessionTimestamp
		err := tx.Table(table).
			Select("id, timestamp").
			Where(`"timestamp" < ?`, entities.MinSessionTimestampMs).
			Order("id").
			Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("scan %s timestamps: %w", table, err)
		}

		repaired := 0
		for _, row := range rows {
			fixed, ok := RepairTimestampMs(row.Timestamp)
			if !ok {
				continue
			}
			err := tx.Exec(fmt.Sprintf(`UPDATE %s SET "timestamp" = ? WHERE id = ?`, table), fixed, row.ID).Error
			if err != nil {
				return fmt.Errorf("repair %s %d: %w", table, row.ID, err)
			}
			repaired++
		}
		log.Printf("[MIGRATE] repaired %d session timestamps in %s", repaired, table)
		return nil
	}
}
