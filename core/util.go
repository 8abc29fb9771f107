package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var errNoProjectRoot = errors.New("project root not found")

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ProjectRoot walks up from the working directory until it finds the directory holding go.mod.
// go test runs inside the package directory, so the working directory alone is not enough.
func ProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errNoProjectRoot
		}
		dir = parent
	}
}
