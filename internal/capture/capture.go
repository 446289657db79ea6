package capture

import "time"

// Media file types. Anything else renders as a plain attachment.
const (
	MediaScreenshot = "screenshot"
	MediaAudio      = "audio"
	MediaImage      = "image"
	MediaFileType   = "file"
)

// MediaFile is one attachment carried by a capture.
type MediaFile struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Capture is one user-submitted record to be archived: free text, clipboard
// snippet, attachments, tags, sources, and free-form context. Fields arrive
// from an untyped payload and are normalized by FromPayload before anything
// downstream sees them.
type Capture struct {
	// CaptureID is the stable identity of this capture. Empty until assigned
	// by Format (derived from the effective timestamp); never changes after.
	CaptureID string

	// Timestamp is authoritative for ordering. Zero means "use now".
	Timestamp time.Time

	Content   string
	Clipboard string

	// Context, Tags, and Sources are ordered, trimmed, non-empty values.
	// Duplicates are allowed and order is preserved.
	Context []string
	Tags    []string
	Sources []string

	// Modalities classifies the capture (text, audio, image, ...).
	Modalities []string

	// Location and Metadata pass through unchanged.
	Location any
	Metadata map[string]any

	MediaFiles []MediaFile

	// Calendar dates; default to the effective timestamp's date when empty.
	CreatedDate    string
	LastEditedDate string
}

// FromPayload builds a Capture from an unstructured JSON-like payload,
// applying the permissive coercions: tags/sources accept comma-separated
// strings or string sequences, context accepts a string or a mapping, and
// missing or wrong-typed fields degrade to their zero values. It never fails.
func FromPayload(raw map[string]any) Capture {
	return Capture{
		CaptureID:      stringField(raw, "capture_id"),
		Timestamp:      ParseTimestamp(raw["timestamp"]),
		Content:        stringField(raw, "content"),
		Clipboard:      stringField(raw, "clipboard"),
		Context:        CoerceContext(raw["context"]),
		Tags:           CoerceList(raw["tags"]),
		Sources:        CoerceList(raw["sources"]),
		Modalities:     CoerceList(raw["modalities"]),
		Location:       raw["location"],
		Metadata:       mapField(raw, "metadata"),
		MediaFiles:     coerceMediaFiles(raw["media_files"]),
		CreatedDate:    stringField(raw, "created_date"),
		LastEditedDate: stringField(raw, "last_edited_date"),
	}
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

func mapField(raw map[string]any, key string) map[string]any {
	m, _ := raw[key].(map[string]any)
	return m
}

func coerceMediaFiles(v any) []MediaFile {
	entries, ok := v.([]any)
	if !ok {
		return nil
	}
	files := make([]MediaFile, 0, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		mf := MediaFile{
			Path: stringField(m, "path"),
			Type: stringField(m, "type"),
			Name: stringField(m, "name"),
		}
		if mf.Type == "" {
			mf.Type = MediaFileType
		}
		files = append(files, mf)
	}
	if len(files) == 0 {
		return nil
	}
	return files
}
