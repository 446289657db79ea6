package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a capture file read back from the vault.
type Document struct {
	Path        string
	FrontMatter map[string]any
	Body        string
}

// ListCaptures returns the markdown files in the capture directory in
// chronological order. Capture IDs are second-precision timestamps, so
// lexicographic filename order is chronological order.
func (s *Store) ListCaptures() ([]string, error) {
	entries, err := os.ReadDir(s.CaptureDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read capture dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		paths = append(paths, filepath.Join(s.CaptureDir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadCapture parses one capture file into its header and body. Files
// without a header parse as all body.
func ReadCapture(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read capture: %w", err)
	}

	doc := Document{Path: path, FrontMatter: map[string]any{}}
	text := string(raw)

	if strings.HasPrefix(text, "---\n") {
		rest := text[len("---\n"):]
		if idx := strings.Index(rest, "\n---\n"); idx >= 0 {
			header := rest[:idx+1]
			doc.Body = rest[idx+len("\n---\n"):]
			if err := yaml.Unmarshal([]byte(header), &doc.FrontMatter); err != nil {
				return Document{}, fmt.Errorf("parse header of %s: %w", filepath.Base(path), err)
			}
			return doc, nil
		}
	}

	doc.Body = text
	return doc, nil
}
