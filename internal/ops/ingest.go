// Package ops implements the capture operations shared by the HTTP, MCP, and
// CLI surfaces. The write path never hard-fails: storage and index errors are
// logged and reflected only in the result flags.
package ops

import (
	"database/sql"
	"log"

	"github.com/hollismb/kapture/internal/capture"
	"github.com/hollismb/kapture/internal/db"
	"github.com/hollismb/kapture/internal/vault"
)

// IngestOutput reports where a capture landed and under which identity.
type IngestOutput struct {
	CaptureID string `json:"capture_id"`
	SavedTo   string `json:"saved_to"`
	Verified  bool   `json:"verified"`
}

// Ingest runs one capture end to end: normalize the payload, render the
// document, persist it to the vault, then record it in the suggestion index.
// The index write is best-effort; a capture on disk but missing from the
// index is the worst outcome, and a rebuild repairs it.
func Ingest(database *sql.DB, store *vault.Store, payload map[string]any) IngestOutput {
	c := capture.FromPayload(payload)

	document, ts, id := capture.Format(c, store.CaptureDir)
	c.CaptureID = id
	c.Timestamp = ts

	res := store.Persist(id, document)

	if database != nil {
		if err := db.RecordCapture(database, &c, ts, res.SavedTo); err != nil {
			log.Printf("ops: index capture %s: %v", id, err)
		}
	}

	return IngestOutput{CaptureID: id, SavedTo: res.SavedTo, Verified: res.Verified}
}
