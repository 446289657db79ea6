package capture

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing a supplied timestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// CoerceList normalizes a string-or-sequence field into an ordered sequence
// of trimmed, non-empty strings. A bare string is split on commas. Duplicates
// are kept and order is preserved. Wrong-typed input yields nil.
func CoerceList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return splitCSV(val)
	case []string:
		return cleanList(val)
	case []any:
		items := make([]string, 0, len(val))
		for _, e := range val {
			if s, ok := e.(string); ok {
				items = append(items, s)
			} else if e != nil {
				items = append(items, fmt.Sprint(e))
			}
		}
		return cleanList(items)
	default:
		return nil
	}
}

// CoerceContext normalizes the context field: a bare string becomes a
// single-element sequence (or nothing when blank); a mapping is flattened to
// its string values in key order, dropping the keys.
func CoerceContext(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		return []string{s}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make([]string, 0, len(keys))
		for _, k := range keys {
			s := strings.TrimSpace(valueString(val[k]))
			if s != "" {
				values = append(values, s)
			}
		}
		if len(values) == 0 {
			return nil
		}
		return values
	case []string, []any:
		return CoerceList(v)
	default:
		return nil
	}
}

// ParseTimestamp parses a supplied timestamp value. Anything missing or
// unparsable yields the zero time, which downstream code treats as "now".
func ParseTimestamp(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case string:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, val); err == nil {
				return ts
			}
		}
	}
	return time.Time{}
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return cleanList(strings.Split(s, ","))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if t := strings.TrimSpace(item); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func valueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
