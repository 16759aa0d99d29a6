package contextcollector

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

// BasicCollector implements ContextCollector by listing a directory.
type BasicCollector struct {
	dir      string
	maxFiles int
}

// NewBasicCollector lists dir, or the process working directory when dir is empty.
func NewBasicCollector(dir string, maxFiles int) *BasicCollector {
	if maxFiles <= 0 {
		maxFiles = domain.MaxContextFiles
	}
	return &BasicCollector{dir: dir, maxFiles: maxFiles}
}

// Collect gathers non-hidden entry names, sorted, capped at maxFiles.
// Directories get a trailing slash.
func (c *BasicCollector) Collect(ctx context.Context) (domain.ContextSnapshot, error) {
	dir := c.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return domain.ContextSnapshot{}, err
		}
		dir = wd
	}
	if err := ctx.Err(); err != nil {
		return domain.ContextSnapshot{}, err
	}

	files, truncated, err := listFiles(dir, c.maxFiles)
	if err != nil {
		return domain.ContextSnapshot{}, err
	}
	return domain.ContextSnapshot{
		WorkingDir: dir,
		Files:      files,
		Truncated:  truncated,
	}, nil
}

func listFiles(dir string, limit int) ([]string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false, err
	}
	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > limit {
		return names[:limit], true, nil
	}
	return names, false, nil
}

var _ ports.ContextCollector = (*BasicCollector)(nil)
