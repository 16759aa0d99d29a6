package domain

import "time"

// HistoryRecord captures one executed command.
type HistoryRecord struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Plugin    string     `json:"plugin"`
	Command   string     `json:"command"`
	Input     string     `json:"input"`
	PinnedAt  *time.Time `json:"pinned_at,omitempty"`
}

// Pinned reports whether the record is pinned.
func (r HistoryRecord) Pinned() bool {
	return r.PinnedAt != nil
}
