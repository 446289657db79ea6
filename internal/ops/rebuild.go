package ops

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hollismb/kapture/internal/capture"
	"github.com/hollismb/kapture/internal/db"
	"github.com/hollismb/kapture/internal/vault"
)

// RebuildOutput summarizes an index rebuild.
type RebuildOutput struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// captureIDPattern extracts the capture ID from a filename stem, dropping
// any collision suffix (20250102_030405_1 -> 20250102_030405).
var captureIDPattern = regexp.MustCompile(`^(\d{8}_\d{6})(?:_\d+)?$`)

// Rebuild replays every capture file in the vault into the suggestion index,
// oldest first, so recency queries come out right. Files that cannot be
// parsed are skipped and counted; they never abort the rebuild.
func Rebuild(database *sql.DB, store *vault.Store) (*RebuildOutput, error) {
	paths, err := store.ListCaptures()
	if err != nil {
		return nil, err
	}
	if err := db.Clear(database); err != nil {
		return nil, err
	}

	out := &RebuildOutput{}
	for _, path := range paths {
		doc, err := vault.ReadCapture(path)
		if err != nil {
			log.Printf("ops: rebuild skip %s: %v", filepath.Base(path), err)
			out.Skipped++
			continue
		}

		c := capture.FromPayload(doc.FrontMatter)
		if c.CaptureID == "" {
			c.CaptureID = captureIDFromPath(path)
		}
		if c.CaptureID == "" {
			log.Printf("ops: rebuild skip %s: no capture ID", filepath.Base(path))
			out.Skipped++
			continue
		}
		ts := c.Timestamp
		if ts.IsZero() {
			ts = fileModTime(path)
		}

		if err := db.RecordCapture(database, &c, ts, path); err != nil {
			log.Printf("ops: rebuild skip %s: %v", filepath.Base(path), err)
			out.Skipped++
			continue
		}
		out.Indexed++
	}
	return out, nil
}

func captureIDFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	if m := captureIDPattern.FindStringSubmatch(stem); m != nil {
		return m[1]
	}
	return ""
}

func fileModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Now().UTC()
	}
	return info.ModTime().UTC()
}
