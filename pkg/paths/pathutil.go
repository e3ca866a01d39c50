package paths

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// CleanEntryName turns a raw tar entry name into a clean
// slash-separated path relative to the extraction root.
// Leading slashes are stripped; names that climb out of
// the root are rejected. The root itself comes back as ".".
func CleanEntryName(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("path contains null byte")
	}
	rel := strings.TrimLeft(name, "/")
	if rel == "" {
		return "", fmt.Errorf("empty path: %q", name)
	}
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return "", fmt.Errorf(
				"path escapes base directory: %s", name,
			)
		}
	}
	return path.Clean(rel), nil
}

// Base reports the final segment of an entry name,
// ignoring any trailing slash.
func Base(name string) string {
	return path.Base(strings.TrimRight(name, "/"))
}

// Parent returns the directory holding rel, "." at the top.
func Parent(rel string) string {
	return path.Dir(rel)
}

// DisplayJoin appends name to root the way the diagnostics
// print it: no cleaning, trailing slashes kept.
func DisplayJoin(root, name string) string {
	if root == "" {
		return name
	}
	if strings.HasSuffix(root, "/") {
		return root + name
	}
	return root + "/" + name
}

// Resolve maps a cleaned relative path to its location
// under root. Symlinks already on disk are evaluated
// inside root, so the result never leaves it.
func Resolve(root, rel string) (string, error) {
	full, err := securejoin.SecureJoin(
		root, filepath.FromSlash(rel),
	)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	if !IsWithinDir(root, full) {
		return "", fmt.Errorf("path escapes dir: %s", rel)
	}
	return full, nil
}

func IsWithinDir(dir, full string) bool {
	rel, err := filepath.Rel(dir, full)
	if err != nil {
		return false
	}
	return rel != ".." &&
		!strings.HasPrefix(rel, "../") &&
		!filepath.IsAbs(rel)
}
