// Package vault persists capture documents and media files into the user's
// note vault. The markdown files on disk are the system of record; the
// suggestion index can always be rebuilt from them.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/hollismb/kapture/internal/config"
)

// Store writes capture documents into one capture directory. Filename
// allocation and the write are serialized so concurrent captures sharing a
// second-precision ID never claim the same file.
type Store struct {
	CaptureDir string
	MediaDir   string

	mu sync.Mutex
}

// Result reports where a capture landed. Verified is false when the document
// could not be confirmed on disk; the capture is still accepted.
type Result struct {
	SavedTo  string `json:"saved_to"`
	Verified bool   `json:"verified"`
}

var (
	storesMu sync.Mutex
	stores   = map[string]*Store{}
)

// StoreFor returns the shared store for the configured capture directory.
// Sharing one store per directory keeps filename allocation race-free across
// the HTTP, MCP, and CLI surfaces in a single process.
func StoreFor(cfg config.Config) *Store {
	dir := cfg.CaptureDirAbs()

	storesMu.Lock()
	defer storesMu.Unlock()
	s, ok := stores[dir]
	if !ok {
		s = &Store{CaptureDir: dir, MediaDir: cfg.MediaDirAbs()}
		stores[dir] = s
	}
	return s
}

// Persist writes a rendered capture document under the capture ID, never
// overwriting an existing file. Storage failures are logged and absorbed:
// the returned result reports Verified=false instead of an error so capture
// ingestion keeps accepting input.
func (s *Store) Persist(captureID, document string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.CaptureDir, 0o755); err != nil {
		log.Printf("vault: create capture dir %s: %v", s.CaptureDir, err)
		return Result{}
	}

	target, err := s.allocatePath(captureID)
	if err != nil {
		log.Printf("vault: allocate path for %s: %v", captureID, err)
		return Result{}
	}

	if err := atomic.WriteFile(target, strings.NewReader(document)); err != nil {
		log.Printf("vault: write %s: %v", target, err)
		return Result{SavedTo: target}
	}

	if _, err := os.Stat(target); err != nil {
		log.Printf("vault: verify %s: %v", target, err)
		return Result{SavedTo: target}
	}
	return Result{SavedTo: target, Verified: true}
}

// allocatePath picks the first free filename for a capture ID: <id>.md, then
// <id>_1.md, <id>_2.md, and so on.
func (s *Store) allocatePath(captureID string) (string, error) {
	base := filepath.Join(s.CaptureDir, captureID)

	candidate := base + ".md"
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d.md", base, n)
	}
}
