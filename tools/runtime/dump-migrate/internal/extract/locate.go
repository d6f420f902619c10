package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoDumpFile is returned when no candidate dump can be found
var ErrNoDumpFile = errors.New("no SQL dump file found")

// LocateDump returns the largest *.sql file in dir whose base name is not
// in exclude (compared case-insensitively)
func LocateDump(dir string, exclude []string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dir, err)
	}

	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[strings.ToLower(name)] = true
	}

	var best string
	var bestSize int64 = -1
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".sql") || skip[strings.ToLower(name)] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			best = filepath.Join(dir, name)
			bestSize = info.Size()
		}
	}

	if best == "" {
		return "", fmt.Errorf("%w in %s", ErrNoDumpFile, dir)
	}
	return best, nil
}
