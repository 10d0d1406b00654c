// Package util provides internal utility functions for procshim.
package util

import (
	"path/filepath"
	"runtime"
	"strings"
)

// CombinePaths combines a base path with a relative path.
// If the relative path is absolute, it is returned as-is.
func CombinePaths(base, rel string) string {
	if filepath.IsAbs(rel) || base == "" {
		return rel
	}
	return filepath.Join(base, rel)
}

// ExecutableName appends the platform's executable suffix to name.
func ExecutableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}
