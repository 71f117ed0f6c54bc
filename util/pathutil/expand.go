package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Expand expands home directory (~) and environment variables in a path.
// An empty path stays empty; anything else comes back absolute.
func Expand(path string) (string, error) {
	return ExpandFrom(path, "")
}

// ExpandFrom is Expand with relative paths resolved against base instead of
// the working directory. Registry entries use the registry file's directory.
func ExpandFrom(path, base string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}

	path = os.ExpandEnv(path)

	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}

	return filepath.Abs(path)
}

// MustExpand is Expand for callers with a sensible fallback: on error the
// input is returned unchanged.
func MustExpand(path string) string {
	expanded, err := Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
