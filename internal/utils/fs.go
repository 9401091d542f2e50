package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const bom = "\ufeff"

// ErrNotDir is returned by PrepareOutputDir when the path is a regular file
var ErrNotDir = errors.New("not a directory")

// ReadSource reads a markdown or summary file, dropping a leading UTF-8 byte
// order mark
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read '%s': %w", path, err)
	}
	return TrimBOM(string(data)), nil
}

// TrimBOM drops a leading UTF-8 byte order mark
func TrimBOM(s string) string {
	return strings.TrimPrefix(s, bom)
}

// WriteText writes content to path, creating parent directories
func WriteText(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	return nil
}

// CopyFile copies src to dst byte for byte
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to open '%s': %w", src, err)
	}
	return WriteText(dst, string(data))
}

// PrepareOutputDir leaves dir existing and empty. Stale output from an
// earlier build is removed.
func PrepareOutputDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
		return nil
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("output '%s': %w", dir, ErrNotDir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory '%s': %w", dir, err)
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove '%s': %w", path, err)
		}
	}
	return nil
}

// Within reports whether path is dir or lies below it. Both are made
// absolute first.
func Within(dir, path string) (bool, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}
