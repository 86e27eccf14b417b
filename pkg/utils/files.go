// Package utils holds small path helpers shared by the compiler driver.
package utils

import (
	"path/filepath"
	"strings"
)

// Stem returns the file name of path without its directory or extension.
// The driver uses it as the default base name for build outputs.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
