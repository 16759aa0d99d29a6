package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

func stores(t *testing.T) map[string]ports.HistoryRepository {
	t.Helper()
	dir := t.TempDir()
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]ports.HistoryRepository{
		"sqlite": sqlite,
		"file":   NewFileStore(filepath.Join(dir, "history.jsonl")),
	}
}

func seed(t *testing.T, repo ports.HistoryRepository) {
	t.Helper()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Save(domain.HistoryRecord{
			ID:        id,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Plugin:    "f2",
			Command:   "f2 -f a -r " + id,
			Input:     "rename " + id,
		}))
	}
}

func ids(records []domain.HistoryRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestHistory_NewestFirst(t *testing.T) {
	for name, repo := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)
			records, err := repo.Records(0)
			require.NoError(t, err)
			assert.Equal(t, []string{"new", "mid", "old"}, ids(records))

			limited, err := repo.Records(2)
			require.NoError(t, err)
			assert.Len(t, limited, 2)
		})
	}
}

func TestHistory_PinnedFirst(t *testing.T) {
	for name, repo := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)
			require.NoError(t, repo.Pin("old"))

			records, err := repo.Records(0)
			require.NoError(t, err)
			assert.Equal(t, []string{"old", "new", "mid"}, ids(records))
			assert.True(t, records[0].Pinned())

			require.NoError(t, repo.Unpin("old"))
			records, err = repo.Records(0)
			require.NoError(t, err)
			assert.Equal(t, []string{"new", "mid", "old"}, ids(records))
		})
	}
}

func TestHistory_GetAndMissing(t *testing.T) {
	for name, repo := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)
			rec, err := repo.Get("mid")
			require.NoError(t, err)
			assert.Equal(t, "rename mid", rec.Input)

			_, err = repo.Get("nope")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, repo.Pin("nope"), ErrNotFound)
		})
	}
}

func TestHistory_SaveAssignsIDAndClear(t *testing.T) {
	for name, repo := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.Save(domain.HistoryRecord{Plugin: "pandoc", Command: "pandoc a.md -o a.pdf"}))
			records, err := repo.Records(0)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.NotEmpty(t, records[0].ID)
			assert.False(t, records[0].Timestamp.IsZero())

			require.NoError(t, repo.Clear())
			records, err = repo.Records(0)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}
