package util

import (
	"errors"
	"strings"
)

// SanitizeFileName flattens path separators into underscores and rejects traversal
// patterns and names that are empty or only dots.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if strings.Trim(s, ".") == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}
