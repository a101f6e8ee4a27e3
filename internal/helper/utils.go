package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CreateFolder makes the directory (and parents) if missing.
func CreateFolder(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}

// ListDocuments returns the ingestable files directly under dir, sorted by
// name. Unknown extensions are skipped.
func ListDocuments(dir string, exts ...string) ([]string, error) {
	if len(exts) == 0 {
		exts = []string{".pdf", ".docx", ".txt", ".md", ".xlsx"}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				paths = append(paths, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return paths, nil
}
