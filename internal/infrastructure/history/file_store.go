package history

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

// FileStore appends history records to a jsonl file. It is the fallback when
// the SQLite database cannot be opened.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a history store backed by the jsonl file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save implements ports.HistoryRepository.
func (f *FileStore) Save(record domain.HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(prepare(record))
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Clear removes the history file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Records loads history entries (best-effort), pinned first then newest.
func (f *FileStore) Records(limit int) ([]domain.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.readAll()
	if err != nil {
		return nil, err
	}
	sortRecords(records)
	return limitRecords(records, limit), nil
}

// Get returns one record by id.
func (f *FileStore) Get(id string) (domain.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.readAll()
	if err != nil {
		return domain.HistoryRecord{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.HistoryRecord{}, ErrNotFound
}

// Pin marks a record as pinned.
func (f *FileStore) Pin(id string) error {
	now := time.Now()
	return f.update(id, func(rec *domain.HistoryRecord) { rec.PinnedAt = &now })
}

// Unpin clears a record's pin.
func (f *FileStore) Unpin(id string) error {
	return f.update(id, func(rec *domain.HistoryRecord) { rec.PinnedAt = nil })
}

func (f *FileStore) update(id string, mutate func(*domain.HistoryRecord)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.readAll()
	if err != nil {
		return err
	}
	found := false
	var buf bytes.Buffer
	for i := range records {
		if records[i].ID == id {
			mutate(&records[i])
			found = true
		}
		data, err := json.Marshal(records[i])
		if err != nil {
			return err
		}
		buf.Write(append(data, '\n'))
	}
	if !found {
		return ErrNotFound
	}
	return os.WriteFile(f.path, buf.Bytes(), domain.SecureFilePermissions)
}

func (f *FileStore) readAll() ([]domain.HistoryRecord, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	var records []domain.HistoryRecord
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		var rec domain.HistoryRecord
		if err := json.Unmarshal(line, &rec); err == nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

var _ ports.HistoryRepository = (*FileStore)(nil)
