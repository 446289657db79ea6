package db

import (
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/hollismb/kapture/internal/capture"
)

// Suggestion is one ranked autocomplete candidate. Color is reserved for a
// future UI concern and is always empty.
type Suggestion struct {
	Value    string `json:"value"`
	Count    int    `json:"count"`
	LastUsed string `json:"last_used"`
	Color    string `json:"color"`
}

// DefaultSuggestLimit caps suggestion results when the caller passes no limit.
const DefaultSuggestLimit = 10

// fieldTables maps the public field selectors onto their index tables.
// Anything else is "no data", never an error.
var fieldTables = map[string]string{
	"tag":     "tags",
	"source":  "sources",
	"context": "contexts",
}

// ValidField reports whether a field selector names an index table. The core
// queries treat unknown fields as "no data"; boundaries that want to reject
// them outright check here first.
func ValidField(field string) bool {
	_, ok := fieldTables[field]
	return ok
}

// RecordCapture upserts a capture's denormalized row and appends its value
// rows. The value tables are append-only: same-second captures share a
// capture_id, and replacing rows would drop the earlier capture's values.
func RecordCapture(db *sql.DB, c *capture.Capture, ts time.Time, filePath string) error {
	tsStr := ts.Format(time.RFC3339)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO captures (
			capture_id, timestamp, content, context, modalities,
			location, metadata, created_date, last_edited_date, file_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CaptureID, tsStr, c.Content,
		jsonNullString(c.Context), jsonNullString(c.Modalities),
		jsonNullString(c.Location), jsonNullString(c.Metadata),
		toNullString(c.CreatedDate), toNullString(c.LastEditedDate),
		toNullString(filePath),
	)
	if err != nil {
		return err
	}

	for _, tag := range c.Tags {
		if _, err := tx.Exec(
			"INSERT INTO tags (value, capture_id, timestamp) VALUES (?, ?, ?)",
			tag, c.CaptureID, tsStr,
		); err != nil {
			return err
		}
	}
	for _, source := range c.Sources {
		if _, err := tx.Exec(
			"INSERT INTO sources (value, capture_id, timestamp) VALUES (?, ?, ?)",
			source, c.CaptureID, tsStr,
		); err != nil {
			return err
		}
	}
	// Context is indexed as a single row holding the whole normalized value.
	if ctx := strings.Join(c.Context, ", "); ctx != "" {
		if _, err := tx.Exec(
			"INSERT INTO contexts (value, capture_id, timestamp) VALUES (?, ?, ?)",
			ctx, c.CaptureID, tsStr,
		); err != nil {
			return err
		}
	}
	for _, m := range c.MediaFiles {
		if _, err := tx.Exec(
			"INSERT INTO media_files (capture_id, path, type, name, timestamp) VALUES (?, ?, ?, ?, ?)",
			c.CaptureID, m.Path, m.Type, toNullString(m.Name), tsStr,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Clear empties every index table. Rebuilds call this before replaying the
// vault so replays stay idempotent despite the append-only value tables.
func Clear(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"captures", "tags", "sources", "contexts", "media_files"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Suggest returns ranked autocomplete candidates for a field. A blank query
// returns the most recently used values; otherwise candidates are scored
// case-insensitively (exact 1000, prefix 800, substring 600, common leading
// run x50) plus a popularity boost of min(count x 10, 100). Candidates with
// no relation to the query are excluded. Unknown fields yield no candidates.
func Suggest(db *sql.DB, field, query string, limit int) ([]Suggestion, error) {
	table, ok := fieldTables[field]
	if !ok {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	rows, err := db.Query(`
		SELECT value, COUNT(*) AS count, MAX(timestamp) AS last_used
		FROM ` + table + `
		GROUP BY value
		ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []Suggestion
	for rows.Next() {
		var s Suggestion
		if err := rows.Scan(&s.Value, &s.Count, &s.LastUsed); err != nil {
			return nil, err
		}
		candidates = append(candidates, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	q := strings.TrimSpace(query)
	if q == "" {
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		return candidates, nil
	}

	type scored struct {
		Suggestion
		score int
	}
	var matched []scored
	for _, c := range candidates {
		score, ok := scoreCandidate(c.Value, q)
		if !ok {
			continue
		}
		score += popularityBoost(c.Count)
		matched = append(matched, scored{Suggestion: c, score: score})
	}

	// Stable sort preserves the recency ordering for equal scores.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]Suggestion, len(matched))
	for i, m := range matched {
		out[i] = m.Suggestion
	}
	return out, nil
}

// scoreCandidate applies the match branches in fixed precedence order:
// equal, prefix, substring, then common leading run. The order matters; do
// not re-derive a "best" rule from the individual branches.
func scoreCandidate(value, query string) (int, bool) {
	v := strings.ToLower(value)
	q := strings.ToLower(query)

	switch {
	case v == q:
		return 1000, true
	case strings.HasPrefix(v, q):
		return 800, true
	case strings.Contains(v, q):
		return 600, true
	}

	run := commonPrefixRun(v, q)
	if run == 0 {
		return 0, false
	}
	return run * 50, true
}

func popularityBoost(count int) int {
	boost := count * 10
	if boost > 100 {
		boost = 100
	}
	return boost
}

// commonPrefixRun counts the leading characters shared by two strings.
func commonPrefixRun(a, b string) int {
	ar, br := []rune(a), []rune(b)
	n := 0
	for n < len(ar) && n < len(br) && ar[n] == br[n] {
		n++
	}
	return n
}

// Exists reports whether a value has ever been recorded for a field.
// Unknown fields report false.
func Exists(db *sql.DB, field, value string) (bool, error) {
	table, ok := fieldTables[field]
	if !ok {
		return false, nil
	}

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE value = ?", value).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecentValues returns the tags, sources, and context of the most recent
// capture, omitting categories with no rows. An empty index yields an empty
// mapping.
func RecentValues(db *sql.DB) (map[string][]string, error) {
	var captureID string
	err := db.QueryRow(
		"SELECT capture_id FROM captures ORDER BY timestamp DESC, id DESC LIMIT 1",
	).Scan(&captureID)
	if err == sql.ErrNoRows {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	recent := map[string][]string{}

	tags, err := valuesFor(db, "tags", captureID)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		recent["tags"] = tags
	}

	sources, err := valuesFor(db, "sources", captureID)
	if err != nil {
		return nil, err
	}
	if len(sources) > 0 {
		recent["sources"] = sources
	}

	var ctx string
	err = db.QueryRow(
		"SELECT value FROM contexts WHERE capture_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1",
		captureID,
	).Scan(&ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil && ctx != "" {
		recent["context"] = []string{ctx}
	}

	return recent, nil
}

// valuesFor lists a capture's rows most-recent-first. Rows sharing a
// timestamp keep their insertion order.
func valuesFor(db *sql.DB, table, captureID string) ([]string, error) {
	rows, err := db.Query(
		"SELECT value FROM "+table+" WHERE capture_id = ? ORDER BY timestamp DESC, id ASC",
		captureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// toNullString converts a string to sql.NullString (empty becomes NULL).
func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// jsonNullString serializes a value to JSON, mapping empty values to NULL.
func jsonNullString(v any) sql.NullString {
	switch val := v.(type) {
	case nil:
		return sql.NullString{}
	case []string:
		if len(val) == 0 {
			return sql.NullString{}
		}
	case map[string]any:
		if len(val) == 0 {
			return sql.NullString{}
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}
