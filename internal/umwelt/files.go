package umwelt

import (
	"os"
	"path/filepath"
)

// FirstExisting returns the first of names present in dir.
func FirstExisting(dir string, names ...string) (string, bool) {
	for _, name := range names {
		fullPath := filepath.Join(dir, name)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, true
		}
	}

	return "", false
}

// Signature reports whether dir carries any of the marker files.
func Signature(dir string, markers ...string) bool {
	_, found := FirstExisting(dir, markers...)
	return found
}
