package history

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/dexter/internal/domain"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("history record not found")

// prepare fills the id and timestamp of a record about to be stored.
func prepare(record domain.HistoryRecord) domain.HistoryRecord {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	return record
}

// sortRecords orders pinned records first (most recently pinned on top),
// then the rest newest first.
func sortRecords(records []domain.HistoryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Pinned() != b.Pinned() {
			return a.Pinned()
		}
		if a.Pinned() && !a.PinnedAt.Equal(*b.PinnedAt) {
			return a.PinnedAt.After(*b.PinnedAt)
		}
		return a.Timestamp.After(b.Timestamp)
	})
}

func limitRecords(records []domain.HistoryRecord, limit int) []domain.HistoryRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
