package migrations

import (
	"fmt"
	"log"
	"sort"

	"gorm.io/gorm"

	"github.com/mrlokans/readlog/internal/entities"
)

// DedupRecord is the part of a quote the dedup pass looks at.
type DedupRecord struct {
	ID           uint
	Content      string
	RemoteID     *int64
	AddTimestamp int64
}

func (r DedupRecord) unsynced() bool {
	return r.RemoteID == nil || *r.RemoteID == entities.UnsetRemoteID
}

// DedupPlan lists what the dedup pass will delete and which buckets it left
// alone because they were too large to resolve safely.
type DedupPlan struct {
	Delete    []uint
	Ambiguous [][]uint
}

// PlanDedup buckets records by their add timestamp truncated to whole seconds.
//
// A bucket of exactly two is an accidental double write when both records have
// identical content and exactly one of them was never synced; the unsynced one
// is deleted. Buckets of one are not duplicates. Buckets larger than two are
// only reported, never resolved.
func PlanDedup(records []DedupRecord) DedupPlan {
	buckets := make(map[int64][]DedupRecord)
	for _, r := range records {
		key := r.AddTimestamp / 1000
		buckets[key] = append(buckets[key], r)
	}

	keys := make([]int64, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var plan DedupPlan
	for _, key := range keys {
		bucket := buckets[key]
		switch {
		case len(bucket) == 2:
			a, b := bucket[0], bucket[1]
			if a.Content != b.Content || a.unsynced() == b.unsynced() {
				continue
			}
			if a.unsynced() {
				plan.Delete = append(plan.Delete, a.ID)
			} else {
				plan.Delete = append(plan.Delete, b.ID)
			}
		case len(bucket) > 2:
			ids := make([]uint, len(bucket))
			for i, r := range bucket {
				ids[i] = r.ID
			}
			plan.Ambiguous = append(plan.Ambiguous, ids)
		}
	}
	return plan
}

type quoteRow struct {
	ID           uint
	Content      string
	RemoteID     *int64
	AddTimestamp *int64
}

// DeduplicateQuotes returns a step that removes accidental duplicate quotes
// from table. Quotes without an add timestamp cannot be bucketed and are kept.
func DeduplicateQuotes(table string) StepFunc {
	return func(tx *gorm.DB) error {
		var rows []quoteRow
		err := tx.Table(table).
			Select("id, content, remote_id, add_timestamp").
			Where("add_timestamp IS NOT NULL").
			Order("id").
			Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}

		records := make([]DedupRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, DedupRecord{
				ID:           row.ID,
				Content:      row.Content,
				RemoteID:     row.RemoteID,
				AddTimestamp: *row.AddTimestamp,
			})
		}

		plan := PlanDedup(records)
		for _, ids := range plan.Ambiguous {
			log.Printf("[MIGRATE] skipping %d quotes sharing one timestamp second, ids %v", len(ids), ids)
		}
		if len(plan.Delete) == 0 {
			return nil
		}
		if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id IN ?", table), plan.Delete).Error; err != nil {
			return fmt.Errorf("delete duplicate quotes: %w", err)
		}
		log.Printf("[MIGRATE] deleted %d duplicate quotes: %v", len(plan.Delete), plan.Delete)
		return nil
	}
}
