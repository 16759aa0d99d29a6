package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

// SQLiteStore persists history in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the history database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history db: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		plugin TEXT NOT NULL,
		command TEXT NOT NULL,
		input TEXT NOT NULL,
		pinned_at INTEGER
	);`)
	return err
}

// Save inserts a new record.
func (s *SQLiteStore) Save(record domain.HistoryRecord) error {
	record = prepare(record)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO executions (id, timestamp, plugin, command, input, pinned_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Timestamp.UnixNano(),
		record.Plugin,
		record.Command,
		record.Input,
		nullableTime(record.PinnedAt),
	)
	return err
}

// Records returns history entries, pinned first then newest.
func (s *SQLiteStore) Records(limit int) ([]domain.HistoryRecord, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT id, timestamp, plugin, command, input, pinned_at FROM executions")
	builder.WriteString(" ORDER BY pinned_at IS NULL, pinned_at DESC, timestamp DESC")
	var args []interface{}
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns one record by id.
func (s *SQLiteStore) Get(id string) (domain.HistoryRecord, error) {
	row := s.db.QueryRow("SELECT id, timestamp, plugin, command, input, pinned_at FROM executions WHERE id = ?", id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return domain.HistoryRecord{}, ErrNotFound
	}
	return rec, err
}

// Pin marks a record as pinned.
func (s *SQLiteStore) Pin(id string) error {
	return s.setPinned(id, time.Now().UnixNano())
}

// Unpin clears a record's pin.
func (s *SQLiteStore) Unpin(id string) error {
	return s.setPinned(id, nil)
}

func (s *SQLiteStore) setPinned(id string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec("UPDATE executions SET pinned_at = ? WHERE id = ?", value, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear deletes all history entries, pinned ones included.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM executions")
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (domain.HistoryRecord, error) {
	var rec domain.HistoryRecord
	var ts int64
	var pinned sql.NullInt64
	if err := row.Scan(&rec.ID, &ts, &rec.Plugin, &rec.Command, &rec.Input, &pinned); err != nil {
		return domain.HistoryRecord{}, err
	}
	rec.Timestamp = time.Unix(0, ts)
	if pinned.Valid {
		at := time.Unix(0, pinned.Int64)
		rec.PinnedAt = &at
	}
	return rec, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
