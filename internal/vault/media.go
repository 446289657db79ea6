package vault

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/oklog/ulid/v2"
)

// SaveMedia copies an uploaded attachment into the media directory and
// returns its absolute path. The client-supplied name is reduced to its base
// name; collisions get a numeric suffix before the extension. A missing or
// degenerate name falls back to a ULID so every upload lands somewhere.
func (s *Store) SaveMedia(name string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.MediaDir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	target, err := s.allocateMediaPath(name)
	if err != nil {
		return "", err
	}
	if err := atomic.WriteFile(target, r); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return target, nil
}

func (s *Store) allocateMediaPath(name string) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload_" + ulid.Make().String()
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(s.MediaDir, name)
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(s.MediaDir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
}
