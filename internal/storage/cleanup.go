package storage

import (
	"os"
	"path/filepath"
	"time"
)

// RemoveOlderThan deletes regular files directly inside dir whose modification time is
// before now minus age. Subdirectories are left alone. It returns the removed paths; a
// missing dir is not an error. Removal continues past individual failures and the first
// one is returned.
func RemoveOlderThan(dir string, age time.Duration, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	cutoff := now.Add(-age)
	var removed []string
	var firstErr error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil {
			if firstErr == nil && !os.IsNotExist(err) {
				firstErr = err
			}
			continue
		}
		removed = append(removed, p)
	}
	return removed, firstErr
}
