package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/doeshing/dexter/internal/domain"
)

// StdLogger is a lightweight implementation backed by Go's log package.
type StdLogger struct {
	verbose bool
	out     *log.Logger
}

// NewStd creates a StdLogger writing to stderr.
func NewStd(verbose bool) *StdLogger {
	return &StdLogger{verbose: verbose, out: log.New(os.Stderr, "", log.LstdFlags)}
}

// New creates a StdLogger writing to w.
func New(w io.Writer, verbose bool) *StdLogger {
	return &StdLogger{verbose: verbose, out: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
}

// Session is a logger bound to one session-<id>.log file.
type Session struct {
	*StdLogger
	ID   string
	Path string
	file *os.File
}

// NewSession opens a fresh log file under dir. Session logs always record
// every level; verbose additionally mirrors them to stderr.
func NewSession(dir string, verbose bool) (*Session, error) {
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	id := uuid.NewString()
	path := filepath.Join(dir, fmt.Sprintf("session-%s.log", id))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, domain.SecureFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}

	var w io.Writer = file
	if verbose {
		w = io.MultiWriter(file, os.Stderr)
	}
	return &Session{
		StdLogger: New(w, true),
		ID:        id,
		Path:      path,
		file:      file,
	}, nil
}

// Close flushes and closes the session file.
func (s *Session) Close() error {
	return s.file.Close()
}

func (l *StdLogger) Debug(msg string, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	l.out.Println("[DEBUG]", msg, fields)
}

func (l *StdLogger) Info(msg string, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	l.out.Println("[INFO]", msg, fields)
}

func (l *StdLogger) Warn(msg string, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	l.out.Println("[WARN]", msg, fields)
}

func (l *StdLogger) Error(msg string, err error, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	l.out.Println("[ERROR]", msg, err, fields)
}
