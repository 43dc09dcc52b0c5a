// Package project locates the project root on the local filesystem.
package project

import (
	"os"
	"path/filepath"
)

// FindRoot walks from start upward through its ancestors and returns the
// first directory (start included) that contains marker. When no ancestor
// contains the marker the parent of start is returned, so the caller always
// gets a usable path. The filesystem is inspected once; the result is not
// re-evaluated later.
func FindRoot(start, marker string) string {
	dir := filepath.Clean(start)

	for {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without a hit.
			return filepath.Dir(filepath.Clean(start))
		}
		dir = parent
	}
}
