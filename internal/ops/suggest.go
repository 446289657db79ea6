package ops

import (
	"database/sql"
	"log"

	"github.com/hollismb/kapture/internal/db"
)

// Suggest returns ranked autocomplete candidates for a field. Storage errors
// degrade to an empty result; the caller cannot distinguish "no data" from
// "index unavailable".
func Suggest(database *sql.DB, field, query string, limit int) []db.Suggestion {
	if database == nil {
		return []db.Suggestion{}
	}
	suggestions, err := db.Suggest(database, field, query, limit)
	if err != nil {
		log.Printf("ops: suggest %s %q: %v", field, query, err)
		return []db.Suggestion{}
	}
	if suggestions == nil {
		return []db.Suggestion{}
	}
	return suggestions
}

// Exists reports whether a value was ever recorded for a field. Storage
// errors and unknown fields both report false.
func Exists(database *sql.DB, field, value string) bool {
	if database == nil {
		return false
	}
	exists, err := db.Exists(database, field, value)
	if err != nil {
		log.Printf("ops: exists %s %q: %v", field, value, err)
		return false
	}
	return exists
}

// RecentValues returns the most recent capture's tags, sources, and context.
// Storage errors degrade to an empty mapping.
func RecentValues(database *sql.DB) map[string][]string {
	if database == nil {
		return map[string][]string{}
	}
	recent, err := db.RecentValues(database)
	if err != nil {
		log.Printf("ops: recent values: %v", err)
		return map[string][]string{}
	}
	return recent
}
