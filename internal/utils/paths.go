// Package utils holds small helpers shared across packages.
package utils

import "path/filepath"

// ResolvePath resolves p relative to baseDir. Absolute and empty paths are
// returned unchanged.
func ResolvePath(p, baseDir string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
